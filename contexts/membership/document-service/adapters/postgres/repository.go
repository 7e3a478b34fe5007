package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rmas/contexts/membership/document-service/domain/entities"
	"rmas/contexts/membership/document-service/ports"

	"gorm.io/gorm"
)

// Repository persists download-request rows and reads the membership tables
// owned by the application service. The cross-module read stays at the table
// level; no code dependency crosses the context boundary.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateOtp(ctx context.Context, otp entities.DownloadOtp) error {
	row := otpModelFromEntity(otp)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) LatestLiveOtp(ctx context.Context, email string, code string, now time.Time) (entities.DownloadOtp, bool, error) {
	var row downloadOtpModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Where("code = ?", strings.TrimSpace(code)).
		Where("verified = ?", false).
		Where("expires_at > ?", now.UTC()).
		Order("created_at DESC, otp_id DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DownloadOtp{}, false, nil
		}
		return entities.DownloadOtp{}, false, err
	}
	return row.toEntity(), true, nil
}

// VerifyAndMintToken is the race-deciding write. The verified predicate in
// the WHERE clause guarantees at most one caller flips the row.
func (r *Repository) VerifyAndMintToken(
	ctx context.Context,
	otpID string,
	token string,
	verifiedAt time.Time,
	tokenExpiresAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&downloadOtpModel{}).
		Where("otp_id = ?", strings.TrimSpace(otpID)).
		Where("verified = ?", false).
		Where("expires_at > ?", verifiedAt.UTC()).
		Updates(map[string]any{
			"verified":         true,
			"verified_at":      verifiedAt.UTC(),
			"token":            token,
			"token_expires_at": tokenExpiresAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) GetByToken(ctx context.Context, token string) (entities.DownloadOtp, bool, error) {
	var row downloadOtpModel
	err := r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DownloadOtp{}, false, nil
		}
		return entities.DownloadOtp{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CountRequestsSince(ctx context.Context, email string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&downloadOtpModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Where("created_at >= ?", since.UTC()).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Where("token_expires_at IS NULL OR token_expires_at <= ?", now.UTC()).
		Delete(&downloadOtpModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// AcceptedByEmail resolves the accepted member owning the address; the most
// recently accepted row wins when an address is shared.
func (r *Repository) AcceptedByEmail(ctx context.Context, email string) (entities.MemberProfile, bool, error) {
	var row memberProfileModel
	err := r.db.WithContext(ctx).
		Table("membership_applications").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Where("status = ?", "accepted").
		Order("accepted_at DESC, application_id DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MemberProfile{}, false, nil
		}
		return entities.MemberProfile{}, false, err
	}

	profile := row.toEntity()

	var assignment roleSnapshotModel
	err = r.db.WithContext(ctx).
		Table("membership_role_assignments").
		Where("application_id = ?", row.ApplicationID).
		First(&assignment).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.MemberProfile{}, false, err
	}
	if err == nil {
		profile.RoleName = assignment.RoleName
		profile.Level = assignment.Level
	}
	return profile, true, nil
}

func (r *Repository) Record(ctx context.Context, event ports.AuditEvent) error {
	row := downloadAuditModel{
		EventID:    event.EventID,
		ActorEmail: strings.ToLower(strings.TrimSpace(event.ActorEmail)),
		Action:     event.Action,
		TargetID:   event.TargetID,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

type downloadOtpModel struct {
	OtpID          string     `gorm:"column:otp_id;primaryKey"`
	Email          string     `gorm:"column:email;index"`
	Code           string     `gorm:"column:code"`
	Verified       bool       `gorm:"column:verified"`
	VerifiedAt     *time.Time `gorm:"column:verified_at"`
	Token          string     `gorm:"column:token;index"`
	TokenExpiresAt *time.Time `gorm:"column:token_expires_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (downloadOtpModel) TableName() string {
	return "download_otps"
}

type downloadAuditModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	ActorEmail string    `gorm:"column:actor_email"`
	Action     string    `gorm:"column:action"`
	TargetID   string    `gorm:"column:target_id"`
	Detail     string    `gorm:"column:detail"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (downloadAuditModel) TableName() string {
	return "download_audit_log"
}

func otpModelFromEntity(item entities.DownloadOtp) downloadOtpModel {
	return downloadOtpModel{
		OtpID:          strings.TrimSpace(item.OtpID),
		Email:          strings.ToLower(strings.TrimSpace(item.Email)),
		Code:           strings.TrimSpace(item.Code),
		Verified:       item.Verified,
		VerifiedAt:     normalizeOptionalTime(item.VerifiedAt),
		Token:          strings.TrimSpace(item.Token),
		TokenExpiresAt: normalizeOptionalTime(item.TokenExpiresAt),
		ExpiresAt:      item.ExpiresAt.UTC(),
		CreatedAt:      item.CreatedAt.UTC(),
	}
}

func (m downloadOtpModel) toEntity() entities.DownloadOtp {
	return entities.DownloadOtp{
		OtpID:          m.OtpID,
		Email:          m.Email,
		Code:           m.Code,
		Verified:       m.Verified,
		VerifiedAt:     normalizeOptionalTime(m.VerifiedAt),
		Token:          m.Token,
		TokenExpiresAt: normalizeOptionalTime(m.TokenExpiresAt),
		ExpiresAt:      m.ExpiresAt.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type memberProfileModel struct {
	ApplicationID string     `gorm:"column:application_id"`
	MembershipID  string     `gorm:"column:membership_id"`
	FullName      string     `gorm:"column:full_name"`
	FatherName    string     `gorm:"column:father_name"`
	Email         string     `gorm:"column:email"`
	Phone         string     `gorm:"column:phone"`
	TeamType      string     `gorm:"column:team_type"`
	State         string     `gorm:"column:state"`
	Division      string     `gorm:"column:division"`
	District      string     `gorm:"column:district"`
	Block         string     `gorm:"column:block"`
	AcceptedAt    *time.Time `gorm:"column:accepted_at"`
}

func (m memberProfileModel) toEntity() entities.MemberProfile {
	profile := entities.MemberProfile{
		ApplicationID: m.ApplicationID,
		MembershipID:  m.MembershipID,
		FullName:      m.FullName,
		FatherName:    m.FatherName,
		Email:         m.Email,
		Phone:         m.Phone,
		TeamType:      m.TeamType,
		State:         m.State,
		Division:      m.Division,
		District:      m.District,
		Block:         m.Block,
	}
	if m.AcceptedAt != nil {
		profile.AcceptedAt = m.AcceptedAt.UTC()
	}
	return profile
}

type roleSnapshotModel struct {
	RoleName string `gorm:"column:role_name"`
	Level    string `gorm:"column:level"`
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
