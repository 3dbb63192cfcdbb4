package invoices

import (
	"context"
	"strings"
	"time"

	"invoicehub-backend/internal/application/irn"
	"invoicehub-backend/internal/application/policies"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/infrastructure/database"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/constants"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/validation"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultMaxAttempts = 3
	retryInterval      = 10 * time.Millisecond
	dateLayout         = "2006-01-02"
)

var (
	ErrInvoiceNotFound    = apperr.New("Invoice not found", apperr.ErrNotFound)
	ErrDuplicateReference = apperr.New("Could not assign a unique invoice reference number, please try again", apperr.ErrConflict)
	ErrNoIDs              = apperr.Validation("No invoice IDs provided.")
	ErrInvalidDate        = apperr.Validation("date must be formatted as YYYY-MM-DD")
	ErrOrganizationNeeded = apperr.Validation("organization is required")
	ErrInvalidDueDate     = apperr.Validation("due_date must be formatted as YYYY-MM-DD")
	ErrDueBeforeIssue     = apperr.Validation("due_date cannot be before the invoice date")
	ErrNegativeDiscount   = apperr.Validation("discount cannot be negative")
	ErrDiscountTooLarge   = apperr.Validation("discount cannot exceed the subtotal")
)

var orderingFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
}

// Service encapsulates invoice operations.
type Service struct {
	DB *gorm.DB
	// Now stamps reference numbers and default issue dates. Defaults to UTC wall clock.
	Now func() time.Time
	// MaxAttempts bounds how many times a create is retried after a reference collision.
	MaxAttempts int
}

// CreateInput is the create payload.
type CreateInput struct {
	OrganizationID     uuid.UUID              `json:"organization"`
	Title              string                 `json:"title" validate:"required,max=255"`
	Date               string                 `json:"date"`
	DueDate            string                 `json:"due_date"`
	Client             map[string]interface{} `json:"client_details"`
	Items              []domain.LineItem      `json:"items_details" validate:"dive"`
	PaymentInfo        map[string]interface{} `json:"payment_info_details"`
	Tax                decimal.Decimal        `json:"tax"`
	Discount           decimal.Decimal        `json:"discount"`
	TermsAndConditions *string                `json:"terms_and_conditions"`
	Note               *string                `json:"note"`
}

// UpdateInput carries the fields a creator may change. Nil means unchanged.
// The reference number and organization are not updatable.
type UpdateInput struct {
	Title              *string                 `json:"title" validate:"omitempty,min=1,max=255"`
	Date               *string                 `json:"date"`
	DueDate            *string                 `json:"due_date"`
	Client             *map[string]interface{} `json:"client_details"`
	Items              *[]domain.LineItem      `json:"items_details"`
	PaymentInfo        *map[string]interface{} `json:"payment_info_details"`
	Tax                *decimal.Decimal        `json:"tax"`
	Discount           *decimal.Decimal        `json:"discount"`
	TermsAndConditions *string                 `json:"terms_and_conditions"`
	Note               *string                 `json:"note"`
}

// ListFilter narrows List. Zero values are ignored.
type ListFilter struct {
	OrganizationID *uuid.UUID
	RefNo          string
	RefNoContains  string
	CreatedBy      *uuid.UUID
	UpdatedBy      *uuid.UUID
	Date           *time.Time
	DateFrom       *time.Time
	DateTo         *time.Time
	DueDate        *time.Time
	DueFrom        *time.Time
	DueTo          *time.Time
	Ordering       string
	Page           pagination.Page
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) maxAttempts() int {
	if s.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return s.MaxAttempts
}

// ParseDate parses a YYYY-MM-DD value as midnight UTC.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

// checkAmounts rejects a discount that is negative or larger than the items' subtotal.
func checkAmounts(items []domain.LineItem, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return ErrNegativeDiscount
	}
	if discount.GreaterThan(domain.Subtotal(items)) {
		return ErrDiscountTooLarge
	}
	return nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) loadOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return (&irn.GormStore{DB: s.DB}).FindOrganization(ctx, id)
}

// Create assigns the next reference number and inserts the invoice in one
// transaction. A reference collision restarts the transaction, up to
// MaxAttempts times.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*domain.Invoice, error) {
	if in.OrganizationID == uuid.Nil {
		return nil, ErrOrganizationNeeded
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	now := s.now()
	issueDate := midnight(now)
	if in.Date != "" {
		d, err := ParseDate(in.Date)
		if err != nil {
			return nil, err
		}
		issueDate = d
	}
	var dueDate *time.Time
	if in.DueDate != "" {
		d, err := ParseDate(in.DueDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		if d.Before(issueDate) {
			return nil, ErrDueBeforeIssue
		}
		dueDate = &d
	}
	if err := checkAmounts(in.Items, in.Discount); err != nil {
		return nil, err
	}
	if err := policies.Authorize(ctx, s.DB, actorID, in.OrganizationID, constants.CreateInvoice); err != nil {
		return nil, err
	}

	var created *domain.Invoice
	err := s.withReferenceRetry(ctx, func(attempt int) error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			store := &irn.GormStore{DB: tx, ForUpdate: true}
			org, err := store.FindOrganization(ctx, in.OrganizationID)
			if err != nil {
				return err
			}
			ref, err := (&irn.Generator{Store: store}).NextFor(ctx, org, now)
			if err != nil {
				return err
			}
			inv := &domain.Invoice{
				OrganizationID:     org.ID,
				ReferenceNumber:    ref,
				Title:              strings.TrimSpace(in.Title),
				IssueDate:          issueDate,
				DueDate:            lo.FromPtrOr(dueDate, issueDate.AddDate(0, 0, org.InvoiceExpiryDays)),
				Client:             datatypes.JSONMap(in.Client),
				Items:              datatypes.JSONSlice[domain.LineItem](in.Items),
				PaymentInfo:        datatypes.JSONMap(in.PaymentInfo),
				Tax:                in.Tax.Round(2),
				Discount:           in.Discount.Round(2),
				TermsAndConditions: lo.FromPtrOr(in.TermsAndConditions, org.TermsAndConditions),
				Note:               lo.FromPtrOr(in.Note, org.Note),
				CreatedBy:          &actorID,
				UpdatedBy:          &actorID,
			}
			if err := tx.Create(inv).Error; err != nil {
				if database.IsUniqueViolation(err) {
					log.Warn().Str("reference_number", ref).Int("attempt", attempt).Msg("invoice reference collision")
					return err
				}
				return apperr.Database(err, "create invoice")
			}
			created = inv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	created.ComputeTotals()
	return created, nil
}

// withReferenceRetry runs op until it succeeds, fails with anything other
// than a unique violation, or reaches MaxAttempts.
func (s *Service) withReferenceRetry(ctx context.Context, op func(attempt int) error) error {
	attempts := s.maxAttempts()
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), uint64(attempts-1)),
		ctx,
	)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op(attempt)
		if err == nil || database.IsUniqueViolation(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil && database.IsUniqueViolation(err) {
		log.Error().Err(err).Int("attempts", attempt).Msg("invoice reference retries exhausted")
		return ErrDuplicateReference
	}
	return err
}

func (s *Service) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, apperr.Database(err, "find invoice")
	}
	return &inv, nil
}

// Get returns an invoice visible to actorID.
func (s *Service) Get(ctx context.Context, actorID, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.find(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policies.Authorize(ctx, s.DB, actorID, inv.OrganizationID, constants.ViewData); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices of the organizations actorID belongs to.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]domain.Invoice, pagination.Meta, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Invoice{})
	if f.OrganizationID != nil {
		if err := policies.Authorize(ctx, s.DB, actorID, *f.OrganizationID, constants.ViewData); err != nil {
			return nil, pagination.Meta{}, err
		}
		q = q.Where("organization_id = ?", *f.OrganizationID)
	} else {
		orgIDs, err := policies.MemberOrganizationIDs(ctx, s.DB, actorID)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		if len(orgIDs) == 0 {
			return []domain.Invoice{}, pagination.BuildMeta(f.Page, 0), nil
		}
		q = q.Where("organization_id IN ?", orgIDs)
	}
	if f.RefNo != "" {
		q = q.Where("reference_number = ?", f.RefNo)
	}
	if f.RefNoContains != "" {
		q = q.Where("LOWER(reference_number) LIKE ?", "%"+strings.ToLower(f.RefNoContains)+"%")
	}
	if f.CreatedBy != nil {
		q = q.Where("created_by = ?", *f.CreatedBy)
	}
	if f.UpdatedBy != nil {
		q = q.Where("updated_by = ?", *f.UpdatedBy)
	}
	if f.Date != nil {
		q = q.Where("issue_date = ?", midnight(*f.Date))
	}
	if f.DateFrom != nil {
		q = q.Where("issue_date >= ?", midnight(*f.DateFrom))
	}
	if f.DateTo != nil {
		q = q.Where("issue_date <= ?", midnight(*f.DateTo))
	}
	if f.DueDate != nil {
		q = q.Where("due_date = ?", midnight(*f.DueDate))
	}
	if f.DueFrom != nil {
		q = q.Where("due_date >= ?", midnight(*f.DueFrom))
	}
	if f.DueTo != nil {
		q = q.Where("due_date <= ?", midnight(*f.DueTo))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "count invoices")
	}
	var out []domain.Invoice
	order := pagination.Ordering(f.Ordering, orderingFields, "created_at DESC")
	if err := pagination.Apply(q.Order(order), f.Page).Find(&out).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "list invoices")
	}
	return out, pagination.BuildMeta(f.Page, total), nil
}

// Update applies in to an invoice created by actorID.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, in UpdateInput) (*domain.Invoice, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Items != nil {
		for _, it := range *in.Items {
			if err := validation.Struct(it); err != nil {
				return nil, err
			}
		}
	}
	inv, err := s.find(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policies.RequireCreator(inv.CreatedBy, actorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_by": actorID}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	issueDate, dueDate := midnight(inv.IssueDate), midnight(inv.DueDate)
	if in.Date != nil {
		d, err := ParseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		issueDate = d
		fields["issue_date"] = d
	}
	if in.DueDate != nil {
		d, err := ParseDate(*in.DueDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		dueDate = d
		fields["due_date"] = d
	}
	if (in.Date != nil || in.DueDate != nil) && dueDate.Before(issueDate) {
		return nil, ErrDueBeforeIssue
	}
	if in.Items != nil || in.Discount != nil {
		items := []domain.LineItem(inv.Items)
		if in.Items != nil {
			items = *in.Items
		}
		discount := lo.FromPtrOr(in.Discount, inv.Discount)
		if err := checkAmounts(items, discount); err != nil {
			return nil, err
		}
	}
	if in.Client != nil {
		fields["client"] = datatypes.JSONMap(*in.Client)
	}
	if in.Items != nil {
		fields["items"] = datatypes.JSONSlice[domain.LineItem](*in.Items)
	}
	if in.PaymentInfo != nil {
		fields["payment_info"] = datatypes.JSONMap(*in.PaymentInfo)
	}
	if in.Tax != nil {
		fields["tax"] = in.Tax.Round(2)
	}
	if in.Discount != nil {
		fields["discount"] = in.Discount.Round(2)
	}
	if in.TermsAndConditions != nil {
		fields["terms_and_conditions"] = *in.TermsAndConditions
	}
	if in.Note != nil {
		fields["note"] = *in.Note
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Invoice{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, apperr.Database(err, "update invoice")
	}
	return s.find(ctx, s.DB, id)
}

// Delete soft-deletes an invoice created by actorID. Its reference number stays reserved.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	inv, err := s.find(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if err := policies.RequireCreator(inv.CreatedBy, actorID); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(inv).Error; err != nil {
		return apperr.Database(err, "delete invoice")
	}
	return nil
}

// BulkDelete deletes every listed invoice or none of them.
func (s *Service) BulkDelete(ctx context.Context, actorID uuid.UUID, rawIDs []string) (int64, error) {
	rawIDs = lo.Uniq(lo.Compact(lo.Map(rawIDs, func(v string, _ int) string { return strings.TrimSpace(v) })))
	if len(rawIDs) == 0 {
		return 0, ErrNoIDs
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return 0, apperr.Validation("Invalid invoice ID: " + raw)
		}
		ids = append(ids, id)
	}
	ids = lo.Uniq(ids)

	var deleted int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []domain.Invoice
		if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
			return apperr.Database(err, "find invoices")
		}
		if len(found) != len(ids) {
			return ErrInvoiceNotFound
		}
		foreign := lo.ContainsBy(found, func(inv domain.Invoice) bool {
			return policies.RequireCreator(inv.CreatedBy, actorID) != nil
		})
		if foreign {
			return policies.ErrNotResourceOwner
		}
		res := tx.Where("id IN ?", ids).Delete(&domain.Invoice{})
		if res.Error != nil {
			return apperr.Database(res.Error, "delete invoices")
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// PreviewReference returns the number the next invoice would get right now.
// Nothing is reserved, so a concurrent create may take it first.
func (s *Service) PreviewReference(ctx context.Context, actorID, orgID uuid.UUID) (string, error) {
	if err := policies.Authorize(ctx, s.DB, actorID, orgID, constants.ViewData); err != nil {
		return "", err
	}
	org, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}
	g := &irn.Generator{Store: &irn.GormStore{DB: s.DB}}
	return g.NextFor(ctx, org, s.now())
}
