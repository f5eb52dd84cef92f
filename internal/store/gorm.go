package store

import (
	"context"
	"errors"
	"fmt"

	"domainacq/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps records in the SQL database opened by database.InitDB.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, rec *models.ImportedDomain) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ImportedDomain{}).
		Where("original_domain = ?", rec.OriginalDomain).Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate %s: %w", rec.OriginalDomain, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrConflict, rec.OriginalDomain)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrConflict, rec.OriginalDomain)
		}
		return fmt.Errorf("create %s: %w", rec.OriginalDomain, err)
	}
	return nil
}

func (s *GormStore) CreateBatch(ctx context.Context, recs []*models.ImportedDomain) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "original_domain"}}, DoNothing: true}).
		Create(recs)
	if res.Error != nil {
		return 0, fmt.Errorf("create batch of %d: %w", len(recs), res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*models.ImportedDomain, error) {
	var rec models.ImportedDomain
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find %s: %w", id, err)
	}
	return &rec, nil
}

func (s *GormStore) List(ctx context.Context) ([]models.ImportedDomain, error) {
	var recs []models.ImportedDomain
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return recs, nil
}

func (s *GormStore) ListByStatus(ctx context.Context, status models.Status) ([]models.ImportedDomain, error) {
	var recs []models.ImportedDomain
	if err := s.db.WithContext(ctx).Where("status = ?", status).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", status, err)
	}
	return recs, nil
}

func (s *GormStore) Update(ctx context.Context, id string, patch models.ImportedDomainPatch) (*models.ImportedDomain, error) {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return rec, nil
	}
	if err := s.db.WithContext(ctx).Model(rec).Updates(patch.Columns()).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, id)
		}
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return s.FindByID(ctx, id)
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.ImportedDomain{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ImportedDomain{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete all: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SettingPrefixState keeps the last email prefix in the settings table.
type SettingPrefixState struct {
	db *gorm.DB
}

func NewSettingPrefixState(db *gorm.DB) *SettingPrefixState {
	return &SettingPrefixState{db: db}
}

func (s *SettingPrefixState) LoadLastPrefix(ctx context.Context) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", models.SettingLastEmailPrefix).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load last prefix: %w", err)
	}
	return setting.Value, nil
}

func (s *SettingPrefixState) SaveLastPrefix(ctx context.Context, prefix string) error {
	setting := models.Setting{Key: models.SettingLastEmailPrefix, Value: prefix}
	if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
		return fmt.Errorf("save last prefix: %w", err)
	}
	return nil
}
