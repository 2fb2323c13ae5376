package client

import (
	"encoding/binary"
	"os"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	// bbolt bucket names
	bucketMeta    = []byte("meta")
	bucketApplied = []byte("applied")

	keyLastSyncCursor = []byte("last_sync_cursor")
)

// AppliedRecord 已应用到本地的记录版本
type AppliedRecord struct {
	Kind    domain.EntityKind
	ID      string
	Version int64
}

func (r AppliedRecord) key() []byte {
	return []byte(string(r.Kind) + "/" + r.ID)
}

// State 客户端本地同步状态：游标与已应用的记录版本
type State struct {
	db *bbolt.DB
}

// OpenState 打开（不存在时创建）状态文件
func OpenState(path string) (*State, error) {
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open state")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketApplied} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.Wrapf(err, "create bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &State{db: db}, nil
}

// Close 关闭状态文件
func (s *State) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Cursor 返回最近一次成功拉取的游标，从未拉取时为 0
func (s *State) Cursor() (int64, error) {
	var cursor int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyLastSyncCursor)
		if v != nil {
			cursor = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return cursor, err
}

// IsApplied 该版本是否已经应用过
func (s *State) IsApplied(r AppliedRecord) (bool, error) {
	var applied bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketApplied).Get(r.key())
		applied = v != nil && int64(binary.BigEndian.Uint64(v)) == r.Version
		return nil
	})
	return applied, err
}

// Commit 在同一个事务中记录已应用版本并保存新游标
func (s *State) Commit(cursor int64, applied []AppliedRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketApplied)
		for _, r := range applied {
			if err := b.Put(r.key(), uint64Bytes(r.Version)); err != nil {
				return errors.Wrap(err, "save applied version")
			}
		}
		if err := tx.Bucket(bucketMeta).Put(keyLastSyncCursor, uint64Bytes(cursor)); err != nil {
			return errors.Wrap(err, "save cursor")
		}
		return nil
	})
}

// Reset 清空游标与已应用版本，下次拉取为全量同步
func (s *State) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketApplied} {
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

func uint64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
