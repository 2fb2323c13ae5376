package local_fs

import (
	"context"
	"os"

	"github.com/haierkeys/novel-sync-service/pkg/fileurl"
)

func (p *LocalFS) Delete(ctx context.Context, fileKey string) error {
	dstFileKey := p.fullPath(fileKey)
	if fileurl.IsExist(dstFileKey) {
		return os.Remove(dstFileKey)
	}
	return nil
}
