package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository persists admin accounts in PostgreSQL.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetAdmin(ctx context.Context, adminID string) (entities.AdminUser, error) {
	var row adminModel
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AdminUser{}, domainerrors.ErrAdminNotFound
		}
		return entities.AdminUser{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (entities.AdminUser, bool, error) {
	var row adminModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AdminUser{}, false, nil
		}
		return entities.AdminUser{}, false, err
	}
	admin, convErr := row.toEntity()
	if convErr != nil {
		return entities.AdminUser{}, false, convErr
	}
	return admin, true, nil
}

func (r *Repository) ListAdmins(ctx context.Context) ([]entities.AdminUser, error) {
	var rows []adminModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.AdminUser, 0, len(rows))
	for _, row := range rows {
		admin, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, admin)
	}
	return items, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, admin entities.AdminUser) error {
	row := adminModelFromEntity(admin)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, adminID string, active bool, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&adminModel{}).
		Where("admin_id = ?", adminID).
		Updates(map[string]any{
			"active":     active,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdminNotFound
	}
	return nil
}

func (r *Repository) DeleteAdmin(ctx context.Context, adminID string) error {
	result := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Delete(&adminModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdminNotFound
	}
	return nil
}

type adminModel struct {
	AdminID       string    `gorm:"column:admin_id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Email         string    `gorm:"column:email;uniqueIndex"`
	PasswordHash  string    `gorm:"column:password_hash"`
	Role          string    `gorm:"column:role"`
	AssignedLevel string    `gorm:"column:assigned_level"`
	AssignedID    string    `gorm:"column:assigned_id"`
	Active        bool      `gorm:"column:active"`
	CreatedBy     string    `gorm:"column:created_by"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (adminModel) TableName() string {
	return "admin_users"
}

func adminModelFromEntity(admin entities.AdminUser) adminModel {
	return adminModel{
		AdminID:       admin.AdminID,
		Name:          admin.Name,
		Email:         admin.Email,
		PasswordHash:  admin.PasswordHash,
		Role:          admin.Role.String(),
		AssignedLevel: string(admin.AssignedLevel),
		AssignedID:    admin.AssignedID,
		Active:        admin.Active,
		CreatedBy:     admin.CreatedBy,
		CreatedAt:     admin.CreatedAt.UTC(),
		UpdatedAt:     admin.UpdatedAt.UTC(),
	}
}

func (m adminModel) toEntity() (entities.AdminUser, error) {
	role, err := entities.ParseRole(m.Role)
	if err != nil {
		return entities.AdminUser{}, err
	}
	return entities.AdminUser{
		AdminID:       m.AdminID,
		Name:          m.Name,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Role:          role,
		AssignedLevel: entities.Level(m.AssignedLevel),
		AssignedID:    m.AssignedID,
		Active:        m.Active,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
