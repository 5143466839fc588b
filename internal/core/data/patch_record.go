package data

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kinds of recorded runs.
const (
	KindPatch          = "patch"
	KindRestore        = "restore"
	KindContentReplace = "content-replace"
	KindContentRestore = "content-restore"
)

// PatchRecord is one run of the patcher or the content replacer against a
// game install.
type PatchRecord struct {
	ID      uint64 `gorm:"primaryKey"`
	Kind    string `gorm:"not null;index"`
	ExePath string `gorm:"not null;index"`
	Variant string
	Version string
	// Comma separated names of the applied patch descriptors.
	Descriptors   string
	BackupCreated bool
	Success       bool
	Error         string
	CreatedAt     time.Time
}

// DescriptorNames splits Descriptors back into a list.
func (r *PatchRecord) DescriptorNames() []string {
	if r.Descriptors == "" {
		return nil
	}
	return strings.Split(r.Descriptors, ",")
}

func (r *PatchRecord) SetDescriptorNames(names []string) {
	r.Descriptors = strings.Join(names, ",")
}

func RecordPatch(db *gorm.DB, record *PatchRecord) error {
	return db.Create(record).Error
}

// ListPatches returns up to limit records, newest first. A limit of zero or
// less returns every record.
func ListPatches(db *gorm.DB, limit int) ([]PatchRecord, error) {
	var records []PatchRecord
	query := db.Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// LatestPatch returns the newest successful patch of exePath, or nil if
// there is none.
func LatestPatch(db *gorm.DB, exePath string) (*PatchRecord, error) {
	var record PatchRecord
	err := db.Where("exe_path = ? AND kind = ? AND success = ?", exePath, KindPatch, true).
		Order("created_at desc").Order("id desc").
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}
