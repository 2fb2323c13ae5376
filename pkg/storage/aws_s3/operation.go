package aws_s3

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/haierkeys/novel-sync-service/pkg/fileurl"
	"github.com/haierkeys/novel-sync-service/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	tmtypes "github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// objectKey 拼接 CustomPath 前缀
func (p *S3) objectKey(fileKey string) string {
	fileKey = strings.TrimPrefix(fileKey, "/")
	if p.Config.CustomPath == "" {
		return fileKey
	}
	return fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + fileKey
}

// SendContent 上传内容
func (p *S3) SendContent(ctx context.Context, fileKey string, content []byte) (string, error) {
	key := p.objectKey(fileKey)

	_, err := p.TransferManager.UploadObject(ctx, &transfermanager.UploadObjectInput{
		Bucket:            aws.String(p.Config.BucketName),
		Key:               aws.String(key),
		Body:              bytes.NewReader(content),
		ChecksumAlgorithm: tmtypes.ChecksumAlgorithmSha256,
	})
	if err != nil {
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noBucket) {
			p.logger.Error("aws_s3 bucket does not exist", zap.String(logger.FieldBucket, p.Config.BucketName))
		}
		return "", errors.Wrap(err, "aws_s3")
	}

	return key, nil
}

// GetContent 下载内容
func (p *S3) GetContent(ctx context.Context, fileKey string) ([]byte, error) {
	out, err := p.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(p.objectKey(fileKey)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}
	return data, nil
}

// List 列出 prefix 下的对象 key（不含 CustomPath），S3 按字典序返回
func (p *S3) List(ctx context.Context, prefix string) ([]string, error) {
	base := p.objectKey("")
	paginator := s3.NewListObjectsV2Paginator(p.S3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Config.BucketName),
		Prefix: aws.String(p.objectKey(prefix)),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "aws_s3")
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), base))
		}
	}
	return keys, nil
}
