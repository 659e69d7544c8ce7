package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/markusressel/fancurve/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketOriginalPwmEnable = "fanOriginalPwmEnable"
	BucketController        = "controller"

	keySelectedCurve = "selectedCurve"
)

// StateStore keeps daemon state that has to survive a restart,
// like the pwm_enable value a fan had before it was taken over.
type StateStore interface {
	Init() error

	SaveOriginalPwmEnable(fanId string, value int) error
	LoadOriginalPwmEnable(fanId string) (int, error)
	DeleteOriginalPwmEnable(fanId string) error

	SaveSelectedCurve(name string) error
	LoadSelectedCurve() (string, error)
}

type stateStore struct {
	dbPath string
}

func NewStateStore(dbPath string) StateStore {
	return &stateStore{
		dbPath: dbPath,
	}
}

func (p stateStore) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p stateStore) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p stateStore) put(bucket string, key string, value []byte) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(key), value)
	})
}

func (p stateStore) get(bucket string, key string) ([]byte, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var result []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(key))
		if v == nil {
			return os.ErrNotExist
		}
		// v is only valid during the transaction
		result = append([]byte{}, v...)
		return nil
	})
	return result, err
}

func (p stateStore) delete(bucket string, key string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// SaveOriginalPwmEnable remembers the pwm_enable value of a fan, unless one is already stored.
// This way a crash while the fan is in manual mode does not overwrite the firmware setting.
func (p stateStore) SaveOriginalPwmEnable(fanId string, value int) error {
	if _, err := p.LoadOriginalPwmEnable(fanId); err == nil {
		return nil
	}
	return p.put(BucketOriginalPwmEnable, fanId, []byte(strconv.Itoa(value)))
}

func (p stateStore) LoadOriginalPwmEnable(fanId string) (int, error) {
	data, err := p.get(BucketOriginalPwmEnable, fanId)
	if err != nil {
		return -1, err
	}
	value, err := strconv.Atoi(string(data))
	if err != nil {
		ui.Warning("Unable to parse saved pwm_enable for %s: %v", fanId, err)
		_ = p.DeleteOriginalPwmEnable(fanId)
		return -1, err
	}
	return value, nil
}

func (p stateStore) DeleteOriginalPwmEnable(fanId string) error {
	return p.delete(BucketOriginalPwmEnable, fanId)
}

func (p stateStore) SaveSelectedCurve(name string) error {
	return p.put(BucketController, keySelectedCurve, []byte(name))
}

func (p stateStore) LoadSelectedCurve() (string, error) {
	data, err := p.get(BucketController, keySelectedCurve)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
