package hostcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/catalog"
	"github.com/brilliance/launcher-gateway/internal/host"
	"github.com/brilliance/launcher-gateway/internal/logger"
)

// Service is the database-backed host.Content implementation.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log.With("service", "HostCatalog")}
}

var _ host.Content = (*Service)(nil)

func (s *Service) ListSections(ctx context.Context) ([]catalog.Section, error) {
	var out []catalog.Section
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetSection(ctx context.Context, handle string) (*catalog.Section, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: missing section handle", apperr.ErrValidation)
	}
	var out catalog.Section
	err := s.db.WithContext(ctx).
		Preload("EntryTypes").
		Preload("EntryTypes.Fields").
		Preload("EntryTypes.Fields.Field").
		Where("handle = ?", handle).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: section %q", apperr.ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) SearchEntries(ctx context.Context, query, sectionHandle string, limit int) ([]catalog.Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Model(&catalog.Entry{})
	if sectionHandle != "" {
		var sec catalog.Section
		err := s.db.WithContext(ctx).Where("handle = ?", sectionHandle).Take(&sec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: section %q", apperr.ErrNotFound, sectionHandle)
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("section_id = ?", sec.ID)
	}
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}
	var out []catalog.Entry
	if err := q.Order("updated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateDraftEntry(ctx context.Context, sectionHandle, typeHandle, title string, fields map[string]any) (*catalog.Entry, error) {
	if sectionHandle == "" || title == "" {
		return nil, fmt.Errorf("%w: section and title are required", apperr.ErrValidation)
	}
	var sec catalog.Section
	err := s.db.WithContext(ctx).Preload("EntryTypes").Where("handle = ?", sectionHandle).Take(&sec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: section %q", apperr.ErrNotFound, sectionHandle)
	}
	if err != nil {
		return nil, err
	}
	if len(sec.EntryTypes) == 0 {
		return nil, fmt.Errorf("%w: section %q has no entry types", apperr.ErrValidation, sectionHandle)
	}
	et := sec.EntryTypes[0]
	if typeHandle != "" {
		found := false
		for _, candidate := range sec.EntryTypes {
			if candidate.Handle == typeHandle {
				et = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: entry type %q in section %q", apperr.ErrNotFound, typeHandle, sectionHandle)
		}
	}

	var content datatypes.JSON
	if len(fields) > 0 {
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: field values not serializable: %v", apperr.ErrValidation, err)
		}
		content = datatypes.JSON(raw)
	}
	row := &catalog.Entry{
		SectionID:   sec.ID,
		EntryTypeID: et.ID,
		Title:       title,
		Slug:        slugify(title),
		Status:      "draft",
		Content:     content,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) ListFields(ctx context.Context) ([]catalog.Field, error) {
	var out []catalog.Field
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetField(ctx context.Context, handle string) (*catalog.Field, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: missing field handle", apperr.ErrValidation)
	}
	var out catalog.Field
	err := s.db.WithContext(ctx).Where("handle = ?", handle).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: field %q", apperr.ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListCategoryGroups(ctx context.Context) ([]catalog.CategoryGroup, error) {
	var out []catalog.CategoryGroup
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetCategoryGroup(ctx context.Context, handle string) (*catalog.CategoryGroup, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: missing group handle", apperr.ErrValidation)
	}
	var out catalog.CategoryGroup
	err := s.db.WithContext(ctx).Preload("Categories").Where("handle = ?", handle).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: category group %q", apperr.ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) SearchCategories(ctx context.Context, query, groupHandle string, limit int) ([]catalog.Category, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Model(&catalog.Category{})
	if groupHandle != "" {
		var grp catalog.CategoryGroup
		err := s.db.WithContext(ctx).Where("handle = ?", groupHandle).Take(&grp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category group %q", apperr.ErrNotFound, groupHandle)
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("group_id = ?", grp.ID)
	}
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}
	var out []catalog.Category
	if err := q.Order("title ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListAssetVolumes(ctx context.Context) ([]catalog.AssetVolume, error) {
	var out []catalog.AssetVolume
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) SearchAssets(ctx context.Context, query, volumeHandle string, limit int) ([]catalog.Asset, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Model(&catalog.Asset{})
	if volumeHandle != "" {
		var vol catalog.AssetVolume
		err := s.db.WithContext(ctx).Where("handle = ?", volumeHandle).Take(&vol).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: asset volume %q", apperr.ErrNotFound, volumeHandle)
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("volume_id = ?", vol.ID)
	}
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(filename) LIKE ? OR LOWER(title) LIKE ?", like, like)
	}
	var out []catalog.Asset
	if err := q.Order("filename ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RebuildAssetIndexes(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&catalog.Asset{}).
		Where("indexed = ?", false).
		Update("indexed", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *Service) ListGlobalSets(ctx context.Context) ([]catalog.GlobalSet, error) {
	var out []catalog.GlobalSet
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetGlobalSet(ctx context.Context, handle string) (*catalog.GlobalSet, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: missing global set handle", apperr.ErrValidation)
	}
	var out catalog.GlobalSet
	err := s.db.WithContext(ctx).Where("handle = ?", handle).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: global set %q", apperr.ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) SearchGlobalSets(ctx context.Context, query string) ([]catalog.GlobalSet, error) {
	q := s.db.WithContext(ctx).Model(&catalog.GlobalSet{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(handle) LIKE ?", like, like)
	}
	var out []catalog.GlobalSet
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateSection(ctx context.Context, name, handle, sectionType string) (*catalog.Section, error) {
	if name == "" || handle == "" {
		return nil, fmt.Errorf("%w: name and handle are required", apperr.ErrValidation)
	}
	switch sectionType {
	case "":
		sectionType = "channel"
	case "channel", "structure", "single":
	default:
		return nil, fmt.Errorf("%w: unknown section type %q", apperr.ErrValidation, sectionType)
	}
	row := &catalog.Section{Name: name, Handle: handle, Type: sectionType}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	// A section always needs at least one entry type to hold entries.
	et := &catalog.EntryType{SectionID: row.ID, Name: name, Handle: handle}
	if err := s.db.WithContext(ctx).Create(et).Error; err != nil {
		return nil, err
	}
	row.EntryTypes = []catalog.EntryType{*et}
	return row, nil
}

func (s *Service) CreateEntryType(ctx context.Context, sectionHandle, name, handle string) (*catalog.EntryType, error) {
	if sectionHandle == "" || name == "" || handle == "" {
		return nil, fmt.Errorf("%w: section, name and handle are required", apperr.ErrValidation)
	}
	var sec catalog.Section
	err := s.db.WithContext(ctx).Where("handle = ?", sectionHandle).Take(&sec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: section %q", apperr.ErrNotFound, sectionHandle)
	}
	if err != nil {
		return nil, err
	}
	row := &catalog.EntryType{SectionID: sec.ID, Name: name, Handle: handle}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) CreateField(ctx context.Context, name, handle, fieldType, instructions string) (*catalog.Field, error) {
	if name == "" || handle == "" {
		return nil, fmt.Errorf("%w: name and handle are required", apperr.ErrValidation)
	}
	if fieldType == "" {
		fieldType = "plainText"
	}
	row := &catalog.Field{Name: name, Handle: handle, Type: fieldType, Instructions: instructions}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) AddFieldToEntryType(ctx context.Context, entryTypeHandle, fieldHandle string, required bool) error {
	if entryTypeHandle == "" || fieldHandle == "" {
		return fmt.Errorf("%w: entry type and field handles are required", apperr.ErrValidation)
	}
	var et catalog.EntryType
	err := s.db.WithContext(ctx).Where("handle = ?", entryTypeHandle).Take(&et).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: entry type %q", apperr.ErrNotFound, entryTypeHandle)
	}
	if err != nil {
		return err
	}
	var f catalog.Field
	err = s.db.WithContext(ctx).Where("handle = ?", fieldHandle).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: field %q", apperr.ErrNotFound, fieldHandle)
	}
	if err != nil {
		return err
	}
	row := &catalog.EntryTypeField{EntryTypeID: et.ID, FieldID: f.ID, Required: required}
	return s.db.WithContext(ctx).Create(row).Error
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
