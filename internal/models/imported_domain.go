package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidImportedDomain = errors.New("imported domain requires a non-empty original domain")

// Status is the acquisition pipeline state of an ImportedDomain.
type Status string

const (
	StatusPending          Status = "pending"
	StatusSearching        Status = "searching"
	StatusFound            Status = "found"
	StatusNoVariant        Status = "no_variant"
	StatusPurchasing       Status = "purchasing"
	StatusConfiguringEmail Status = "configuring_email"
	StatusConfiguringURL   Status = "configuring_url"
	StatusDone             Status = "done"
	StatusError            Status = "error"
)

var AllStatuses = []Status{
	StatusPending, StatusSearching, StatusFound, StatusNoVariant, StatusPurchasing,
	StatusConfiguringEmail, StatusConfiguringURL, StatusDone, StatusError,
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// InFlight reports whether a remote operation is running for a record in this state.
func (s Status) InFlight() bool {
	switch s {
	case StatusSearching, StatusPurchasing, StatusConfiguringEmail, StatusConfiguringURL:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:          {StatusSearching},
	StatusNoVariant:        {StatusSearching},
	StatusSearching:        {StatusFound, StatusNoVariant, StatusPending},
	StatusFound:            {StatusPurchasing},
	StatusPurchasing:       {StatusConfiguringEmail, StatusError},
	StatusConfiguringEmail: {StatusConfiguringURL, StatusError},
	StatusConfiguringURL:   {StatusDone, StatusError},
	StatusError:            {StatusConfiguringEmail, StatusSearching},
	StatusDone:             {StatusConfiguringEmail},
}

// CanTransition reports whether the pipeline allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ImportedDomain struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	OriginalDomain  string     `gorm:"not null;uniqueIndex" json:"originalDomain"`
	PurchasedDomain string     `json:"purchasedDomain,omitempty"`
	Price           *float64   `json:"price,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	ForwardURL      string     `json:"forwardUrl,omitempty"`
	EmailPrefix     string     `json:"emailPrefix,omitempty"`
	EmailForwardTo  string     `json:"emailForwardTo,omitempty"`
	Status          Status     `gorm:"not null;default:'pending';index" json:"status"`
	Error           string     `json:"error,omitempty"`
	RegisteredAt    *time.Time `json:"registeredAt,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Prepare fills creation defaults and validates the record.
func (d *ImportedDomain) Prepare() error {
	d.OriginalDomain = strings.TrimSpace(d.OriginalDomain)
	if d.OriginalDomain == "" {
		return ErrInvalidImportedDomain
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	return nil
}

func (d *ImportedDomain) BeforeCreate(tx *gorm.DB) error {
	return d.Prepare()
}

// Registered reports whether the registrar accepted the purchase of PurchasedDomain.
func (d *ImportedDomain) Registered() bool {
	return d.RegisteredAt != nil && d.PurchasedDomain != ""
}

// ResolveForwardURL returns the operator URL, or the original domain over https.
func (d *ImportedDomain) ResolveForwardURL() string {
	if u := strings.TrimSpace(d.ForwardURL); u != "" {
		return u
	}
	return "https://" + d.OriginalDomain
}

// ImportedDomainPatch is a partial update. Nil fields are left untouched.
type ImportedDomainPatch struct {
	Status          *Status
	PurchasedDomain *string
	Price           *float64
	ClearPrice      bool
	Currency        *string
	ForwardURL      *string
	EmailPrefix     *string
	EmailForwardTo  *string
	Error           *string
	RegisteredAt    *time.Time
}

func (p ImportedDomainPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the patch onto database column names.
func (p ImportedDomainPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.PurchasedDomain != nil {
		cols["purchased_domain"] = *p.PurchasedDomain
	}
	if p.ClearPrice {
		cols["price"] = nil
	} else if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Currency != nil {
		cols["currency"] = *p.Currency
	}
	if p.ForwardURL != nil {
		cols["forward_url"] = *p.ForwardURL
	}
	if p.EmailPrefix != nil {
		cols["email_prefix"] = *p.EmailPrefix
	}
	if p.EmailForwardTo != nil {
		cols["email_forward_to"] = *p.EmailForwardTo
	}
	if p.Error != nil {
		cols["error"] = *p.Error
	}
	if p.RegisteredAt != nil {
		cols["registered_at"] = *p.RegisteredAt
	}
	return cols
}

// Apply mutates d in place with the patch values.
func (p ImportedDomainPatch) Apply(d *ImportedDomain) {
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.PurchasedDomain != nil {
		d.PurchasedDomain = *p.PurchasedDomain
	}
	if p.ClearPrice {
		d.Price = nil
	} else if p.Price != nil {
		price := *p.Price
		d.Price = &price
	}
	if p.Currency != nil {
		d.Currency = *p.Currency
	}
	if p.ForwardURL != nil {
		d.ForwardURL = *p.ForwardURL
	}
	if p.EmailPrefix != nil {
		d.EmailPrefix = *p.EmailPrefix
	}
	if p.EmailForwardTo != nil {
		d.EmailForwardTo = *p.EmailForwardTo
	}
	if p.Error != nil {
		d.Error = *p.Error
	}
	if p.RegisteredAt != nil {
		at := *p.RegisteredAt
		d.RegisteredAt = &at
	}
}

// Stats counts records per status.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
}

func CountByStatus(records []ImportedDomain) Stats {
	stats := Stats{Total: len(records), ByStatus: make(map[Status]int, len(AllStatuses))}
	for _, s := range AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, r := range records {
		stats.ByStatus[r.Status]++
	}
	return stats
}
