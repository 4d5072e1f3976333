package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository defines decoupled operations for credential persistence.
type CredentialRepository interface {
	Get(ctx context.Context) (*Credential, error)
	Upsert(ctx context.Context, c *Credential) error
	Delete(ctx context.Context) error
}

// FolderRepository defines the local folder cache.
type FolderRepository interface {
	ReplaceFolders(ctx context.Context, folders []FolderRecord) error
	ListFolders(ctx context.Context) ([]FolderRecord, error)
	PutDetail(ctx context.Context, folder FolderRecord, cards []CardRecord) error
	ListCards(ctx context.Context, folderID int) ([]CardRecord, error)
	Invalidate(ctx context.Context) error
}

// gormCredentialRepo is a GORM-backed implementation of CredentialRepository.
// Use constructor NewCredentialRepository to obtain an instance.
type gormCredentialRepo struct{ db *gorm.DB }

// gormFolderRepo is a GORM-backed implementation of FolderRepository.
// Use constructor NewFolderRepository to obtain an instance.
type gormFolderRepo struct{ db *gorm.DB }

// NewCredentialRepository creates a CredentialRepository. Accepts *gorm.DB to avoid global access.
func NewCredentialRepository(db *gorm.DB) CredentialRepository { return &gormCredentialRepo{db: db} }

// NewFolderRepository creates a FolderRepository. Accepts *gorm.DB to avoid global access.
func NewFolderRepository(db *gorm.DB) FolderRepository { return &gormFolderRepo{db: db} }

func (r *gormCredentialRepo) Get(ctx context.Context) (*Credential, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var c Credential
	err := r.db.WithContext(ctx).First(&c, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormCredentialRepo) Upsert(ctx context.Context, c *Credential) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if c == nil {
		return fmt.Errorf("credential is nil")
	}
	row := *c
	row.ID = 1
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "user_id"}),
	}).Create(&row).Error
}

func (r *gormCredentialRepo) Delete(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Credential{}).Error
}

func (r *gormFolderRepo) ReplaceFolders(ctx context.Context, folders []FolderRecord) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&FolderRecord{}).Error; err != nil {
			return err
		}
		if len(folders) == 0 {
			return nil
		}
		for i := range folders {
			folders[i].SyncedAt = now
		}
		return tx.Create(&folders).Error
	})
}

func (r *gormFolderRepo) ListFolders(ctx context.Context) ([]FolderRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var folders []FolderRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *gormFolderRepo) PutDetail(ctx context.Context, folder FolderRecord, cards []CardRecord) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	folder.SyncedAt = time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&folder).Error; err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", folder.ID).Delete(&CardRecord{}).Error; err != nil {
			return err
		}
		if len(cards) == 0 {
			return nil
		}
		for i := range cards {
			cards[i].FolderID = folder.ID
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&cards).Error
	})
}

func (r *gormFolderRepo) ListCards(ctx context.Context, folderID int) ([]CardRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var cards []CardRecord
	if err := r.db.WithContext(ctx).Where("folder_id = ?", folderID).Order("id").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *gormFolderRepo) Invalidate(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CardRecord{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&FolderRecord{}).Error
	})
}
