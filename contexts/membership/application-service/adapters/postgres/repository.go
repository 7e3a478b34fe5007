package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

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

func (r *Repository) CreateApplication(ctx context.Context, app entities.Application, history entities.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := applicationModelFromEntity(app)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidApplication
			}
			return err
		}
		historyRow := historyModelFromEntity(history)
		return tx.Create(&historyRow).Error
	})
}

func (r *Repository) GetApplication(ctx context.Context, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetByMembershipID(ctx context.Context, membershipID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("LOWER(membership_id) = LOWER(?)", strings.TrimSpace(membershipID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListApplications(ctx context.Context, filter ports.ApplicationFilter) ([]entities.Application, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&applicationModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if scopeSQL, scopeArgs := buildScopeConditions(filter.Scopes); scopeSQL != "" {
		tx = tx.Where(scopeSQL, scopeArgs...)
	}

	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", domainerrors.ErrInvalidCursor
	}

	var rows []applicationModel
	// One extra row decides whether a next page exists.
	if err := tx.Order("created_at DESC, application_id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).
		Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = encodeCursor(offset + limit)
	}
	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) ClaimApplication(
	ctx context.Context,
	applicationID string,
	adminID string,
	history entities.HistoryEntry,
) (entities.Application, error) {
	applicationID = strings.TrimSpace(applicationID)
	var claimed entities.Application

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single conditional update; exactly one racing claimer sees a row.
		result := tx.Model(&applicationModel{}).
			Where("application_id = ?", applicationID).
			Where("status = ?", string(entities.ApplicationStatusPending)).
			Where("assigned_to IS NULL OR assigned_to = ''").
			Updates(map[string]any{
				"assigned_to": strings.TrimSpace(adminID),
				"updated_at":  history.CreatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var row applicationModel
			if err := tx.Where("application_id = ?", applicationID).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrApplicationNotFound
				}
				return err
			}
			if entities.ApplicationStatus(row.Status).Terminal() {
				return domainerrors.ErrAlreadyDecided
			}
			return domainerrors.ErrAlreadyClaimed
		}

		historyRow := historyModelFromEntity(history)
		if err := tx.Create(&historyRow).Error; err != nil {
			return err
		}

		var row applicationModel
		if err := tx.Where("application_id = ?", applicationID).First(&row).Error; err != nil {
			return err
		}
		claimed = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return claimed, nil
}

func (r *Repository) UpdateAssignee(ctx context.Context, applicationID string, adminID string, history entities.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&applicationModel{}).
			Where("application_id = ?", strings.TrimSpace(applicationID)).
			Where("status = ?", string(entities.ApplicationStatusPending)).
			Updates(map[string]any{
				"assigned_to": strings.TrimSpace(adminID),
				"updated_at":  history.CreatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrAlreadyDecided
		}
		historyRow := historyModelFromEntity(history)
		return tx.Create(&historyRow).Error
	})
}

func (r *Repository) TransitionStatus(
	ctx context.Context,
	app entities.Application,
	history entities.HistoryEntry,
	event ports.EventEnvelope,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := applicationModelFromEntity(app)
		result := tx.Model(&applicationModel{}).
			Where("application_id = ?", row.ApplicationID).
			Where("status = ?", string(entities.ApplicationStatusPending)).
			Updates(applicationUpdates(row))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var existing applicationModel
			if err := tx.Where("application_id = ?", row.ApplicationID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrApplicationNotFound
				}
				return err
			}
			return domainerrors.ErrAlreadyDecided
		}

		historyRow := historyModelFromEntity(history)
		if err := tx.Create(&historyRow).Error; err != nil {
			return err
		}
		return appendOutbox(tx, event)
	})
}

func (r *Repository) SaveRoleAssignment(
	ctx context.Context,
	app entities.Application,
	assignment entities.RoleAssignment,
	history []entities.HistoryEntry,
	event ports.EventEnvelope,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := applicationModelFromEntity(app)
		result := tx.Model(&applicationModel{}).
			Where("application_id = ?", row.ApplicationID).
			Updates(applicationUpdates(row))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrApplicationNotFound
		}

		assignmentRow := roleAssignmentModelFromEntity(assignment)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "application_id"}},
			UpdateAll: true,
		}).Create(&assignmentRow).Error; err != nil {
			return err
		}

		for _, entry := range history {
			historyRow := historyModelFromEntity(entry)
			if err := tx.Create(&historyRow).Error; err != nil {
				return err
			}
		}
		return appendOutbox(tx, event)
	})
}

func (r *Repository) GetRoleAssignment(ctx context.Context, applicationID string) (entities.RoleAssignment, bool, error) {
	var row roleAssignmentModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoleAssignment{}, false, nil
		}
		return entities.RoleAssignment{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateLetterURL(ctx context.Context, applicationID string, letterURL string, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&applicationModel{}).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Updates(map[string]any{
			"letter_url": strings.TrimSpace(letterURL),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApplicationNotFound
	}
	return nil
}

func (r *Repository) AppendHistory(ctx context.Context, entry entities.HistoryEntry) error {
	row := historyModelFromEntity(entry)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListHistory(ctx context.Context, applicationID string) ([]entities.HistoryEntry, error) {
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// NextMembershipSerial reserves the next serial with a single upsert so
// concurrent accepts for the same district+year never collide.
func (r *Repository) NextMembershipSerial(ctx context.Context, districtCode string, year int) (int, error) {
	row := membershipCounterModel{
		DistrictCode: strings.ToUpper(strings.TrimSpace(districtCode)),
		Year:         year,
		Serial:       1,
	}
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "district_code"}, {Name: "year"}},
				DoUpdates: clause.Assignments(map[string]any{
					"serial": gorm.Expr("membership_counters.serial + 1"),
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "serial"}}},
		).
		Create(&row).
		Error
	if err != nil {
		return 0, err
	}
	return row.Serial, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) Record(ctx context.Context, event ports.AuditEvent) error {
	row := auditModel{
		EventID:    event.EventID,
		ActorID:    event.ActorID,
		Action:     event.Action,
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApplicationNotFound
	}
	return nil
}

func appendOutbox(tx *gorm.DB, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func buildScopeConditions(scopes []entities.ScopeFilter) (string, []any) {
	if len(scopes) == 0 {
		return "", nil
	}
	conditions := make([]string, 0, len(scopes))
	args := make([]any, 0, len(scopes))
	for _, scope := range scopes {
		if scope.State != "" {
			conditions = append(conditions, "state = ?")
			args = append(args, scope.State)
		}
		if scope.Division != "" {
			conditions = append(conditions, "division = ?")
			args = append(args, scope.Division)
		}
		if len(scope.Districts) > 0 {
			conditions = append(conditions, "district IN ?")
			args = append(args, scope.Districts)
		}
		if len(scope.Blocks) > 0 {
			conditions = append(conditions, "block IN ?")
			args = append(args, scope.Blocks)
		}
	}
	if len(conditions) == 0 {
		// Non-empty scope set with no usable disjunct must match nothing.
		return "1 = 0", nil
	}
	return "(" + strings.Join(conditions, " OR ") + ")", args
}

type applicationModel struct {
	ApplicationID string     `gorm:"column:application_id;primaryKey"`
	FullName      string     `gorm:"column:full_name"`
	FatherName    string     `gorm:"column:father_name"`
	Email         string     `gorm:"column:email;index"`
	Phone         string     `gorm:"column:phone"`
	Address       string     `gorm:"column:address"`
	TeamType      string     `gorm:"column:team_type"`
	LocatedAt     string     `gorm:"column:located_at"`
	State         string     `gorm:"column:state"`
	Division      string     `gorm:"column:division"`
	District      string     `gorm:"column:district"`
	Block         string     `gorm:"column:block"`
	Status        string     `gorm:"column:status"`
	AssignedTo    string     `gorm:"column:assigned_to"`
	MembershipID  string     `gorm:"column:membership_id;uniqueIndex"`
	LetterURL     string     `gorm:"column:letter_url"`
	AcceptedAt    *time.Time `gorm:"column:accepted_at"`
	RejectedAt    *time.Time `gorm:"column:rejected_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (applicationModel) TableName() string {
	return "membership_applications"
}

func applicationModelFromEntity(item entities.Application) applicationModel {
	return applicationModel{
		ApplicationID: strings.TrimSpace(item.ApplicationID),
		FullName:      strings.TrimSpace(item.FullName),
		FatherName:    strings.TrimSpace(item.FatherName),
		Email:         strings.ToLower(strings.TrimSpace(item.Email)),
		Phone:         strings.TrimSpace(item.Phone),
		Address:       strings.TrimSpace(item.Address),
		TeamType:      string(item.TeamType),
		LocatedAt:     string(item.Location.LocatedAt),
		State:         strings.TrimSpace(item.Location.State),
		Division:      strings.TrimSpace(item.Location.Division),
		District:      strings.TrimSpace(item.Location.District),
		Block:         strings.TrimSpace(item.Location.Block),
		Status:        string(item.Status),
		AssignedTo:    strings.TrimSpace(item.AssignedTo),
		MembershipID:  strings.TrimSpace(item.MembershipID),
		LetterURL:     strings.TrimSpace(item.LetterURL),
		AcceptedAt:    normalizeOptionalTime(item.AcceptedAt),
		RejectedAt:    normalizeOptionalTime(item.RejectedAt),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func applicationUpdates(row applicationModel) map[string]any {
	return map[string]any{
		"full_name":     row.FullName,
		"father_name":   row.FatherName,
		"email":         row.Email,
		"phone":         row.Phone,
		"address":       row.Address,
		"team_type":     row.TeamType,
		"located_at":    row.LocatedAt,
		"state":         row.State,
		"division":      row.Division,
		"district":      row.District,
		"block":         row.Block,
		"status":        row.Status,
		"assigned_to":   row.AssignedTo,
		"membership_id": row.MembershipID,
		"letter_url":    row.LetterURL,
		"accepted_at":   row.AcceptedAt,
		"rejected_at":   row.RejectedAt,
		"updated_at":    row.UpdatedAt,
	}
}

func (m applicationModel) toEntity() entities.Application {
	return entities.Application{
		ApplicationID: m.ApplicationID,
		FullName:      m.FullName,
		FatherName:    m.FatherName,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		TeamType:      entities.TeamType(m.TeamType),
		Location: entities.Location{
			LocatedAt: entities.Level(m.LocatedAt),
			State:     m.State,
			Division:  m.Division,
			District:  m.District,
			Block:     m.Block,
		},
		Status:       entities.ApplicationStatus(m.Status),
		AssignedTo:   m.AssignedTo,
		MembershipID: m.MembershipID,
		LetterURL:    m.LetterURL,
		AcceptedAt:   normalizeOptionalTime(m.AcceptedAt),
		RejectedAt:   normalizeOptionalTime(m.RejectedAt),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type roleAssignmentModel struct {
	ApplicationID string    `gorm:"column:application_id;primaryKey"`
	Category      string    `gorm:"column:category"`
	RoleCode      string    `gorm:"column:role_code"`
	RoleName      string    `gorm:"column:role_name"`
	TeamType      string    `gorm:"column:team_type"`
	Level         string    `gorm:"column:level"`
	Location      string    `gorm:"column:location"`
	Reason        string    `gorm:"column:reason"`
	AssignedBy    string    `gorm:"column:assigned_by"`
	AssignedAt    time.Time `gorm:"column:assigned_at"`
}

func (roleAssignmentModel) TableName() string {
	return "membership_role_assignments"
}

func roleAssignmentModelFromEntity(item entities.RoleAssignment) roleAssignmentModel {
	return roleAssignmentModel{
		ApplicationID: strings.TrimSpace(item.ApplicationID),
		Category:      strings.TrimSpace(item.Category),
		RoleCode:      strings.TrimSpace(item.RoleCode),
		RoleName:      strings.TrimSpace(item.RoleName),
		TeamType:      string(item.TeamType),
		Level:         string(item.Level),
		Location:      strings.TrimSpace(item.Location),
		Reason:        strings.TrimSpace(item.Reason),
		AssignedBy:    strings.TrimSpace(item.AssignedBy),
		AssignedAt:    item.AssignedAt.UTC(),
	}
}

func (m roleAssignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		ApplicationID: m.ApplicationID,
		Category:      m.Category,
		RoleCode:      m.RoleCode,
		RoleName:      m.RoleName,
		TeamType:      entities.TeamType(m.TeamType),
		Level:         entities.Level(m.Level),
		Location:      m.Location,
		Reason:        m.Reason,
		AssignedBy:    m.AssignedBy,
		AssignedAt:    m.AssignedAt.UTC(),
	}
}

type historyModel struct {
	HistoryID     string    `gorm:"column:history_id;primaryKey"`
	ApplicationID string    `gorm:"column:application_id;index"`
	ActorID       string    `gorm:"column:actor_id"`
	ActorRole     string    `gorm:"column:actor_role"`
	Action        string    `gorm:"column:action"`
	Note          string    `gorm:"column:note"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (historyModel) TableName() string {
	return "membership_history"
}

func historyModelFromEntity(item entities.HistoryEntry) historyModel {
	return historyModel{
		HistoryID:     strings.TrimSpace(item.HistoryID),
		ApplicationID: strings.TrimSpace(item.ApplicationID),
		ActorID:       strings.TrimSpace(item.ActorID),
		ActorRole:     strings.TrimSpace(item.ActorRole),
		Action:        string(item.Action),
		Note:          strings.TrimSpace(item.Note),
		CreatedAt:     item.CreatedAt.UTC(),
	}
}

func (m historyModel) toEntity() entities.HistoryEntry {
	return entities.HistoryEntry{
		HistoryID:     m.HistoryID,
		ApplicationID: m.ApplicationID,
		ActorID:       m.ActorID,
		ActorRole:     m.ActorRole,
		Action:        entities.HistoryAction(m.Action),
		Note:          m.Note,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type membershipCounterModel struct {
	DistrictCode string `gorm:"column:district_code;primaryKey"`
	Year         int    `gorm:"column:year;primaryKey"`
	Serial       int    `gorm:"column:serial"`
}

func (membershipCounterModel) TableName() string {
	return "membership_counters"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "membership_outbox"
}

type auditModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	ActorID    string    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action"`
	TargetType string    `gorm:"column:target_type"`
	TargetID   string    `gorm:"column:target_id"`
	Detail     string    `gorm:"column:detail"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (auditModel) TableName() string {
	return "membership_audit_log"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
