package school

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// School is a tenant; every student belongs to exactly one.
type School struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Code       string    `db:"code" json:"code"`
	StudyType  string    `db:"study_type" json:"study_type"`
	Level      string    `db:"level" json:"level"`
	GenderType string    `db:"gender_type" json:"gender_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// NewSchool is the creation payload.
type NewSchool struct {
	Name       string `json:"name" validate:"required"`
	StudyType  string `json:"study_type" validate:"required"`
	Level      string `json:"level" validate:"required"`
	GenderType string `json:"gender_type" validate:"required"`
}

// UpdateSchool is the update payload; empty fields are left unchanged.
type UpdateSchool struct {
	Name       string `json:"name"`
	StudyType  string `json:"study_type"`
	Level      string `json:"level"`
	GenderType string `json:"gender_type"`
}

// GenerateCode makes a "SCH-<ms-digits>-<suffix>" school code candidate.
// Uniqueness is enforced by retrying against the store.
func GenerateCode() string {
	ms := fmt.Sprintf("%d", time.Now().UnixNano()/int64(time.Millisecond))
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:3])
	return fmt.Sprintf("SCH-%s-%s", ms, suffix)
}
