package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/family"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/signature"
)

// requestValidate validates request shapes. Field names in errors are the
// JSON names.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := requestValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
}

// validateRequest maps the first validator failure to an ir ValidationError.
func validateRequest(req any) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	return ir.NewValidationError(field, fmt.Sprintf("%s failed %q", field, fe.Tag()))
}

// RegisterRequest registers one canonical signature.
type RegisterRequest struct {
	OwnerID            string                `json:"owner_id" validate:"notblank"`
	ContentAddress     ir.ContentAddress     `json:"content_address" validate:"notblank"`
	CanonicalSignature ir.CanonicalSignature `json:"canonical_signature" validate:"notblank"`
	Evidence           json.RawMessage       `json:"evidence,omitempty"`
}

// RegisterResponse reports the stored entry.
type RegisterResponse struct {
	Entry    ir.RegistryEntry `json:"entry"`
	Inserted bool             `json:"inserted"`
}

// LinkRequest creates an equivalence link.
type LinkRequest struct {
	OwnerID   string            `json:"owner_id" validate:"notblank"`
	AddressA  ir.ContentAddress `json:"address_a" validate:"notblank"`
	AddressB  ir.ContentAddress `json:"address_b" validate:"notblank,nefield=AddressA"`
	CreatedBy string            `json:"created_by" validate:"notblank"`
	Reason    string            `json:"reason" validate:"notblank,max=1024"`
}

func (r LinkRequest) toCore() signature.LinkRequest {
	return signature.LinkRequest{OwnerID: r.OwnerID, A: r.AddressA, B: r.AddressB, CreatedBy: r.CreatedBy, Reason: r.Reason}
}

// LinkResponse reports the active link.
type LinkResponse struct {
	Link    ir.EquivalenceEdge `json:"link"`
	Created bool               `json:"created"`
}

// UnlinkRequest deactivates an equivalence link.
type UnlinkRequest struct {
	OwnerID       string            `json:"owner_id" validate:"notblank"`
	AddressA      ir.ContentAddress `json:"address_a" validate:"notblank"`
	AddressB      ir.ContentAddress `json:"address_b" validate:"notblank"`
	DeactivatedBy string            `json:"deactivated_by" validate:"notblank"`
	Reason        string            `json:"reason" validate:"notblank,max=1024"`
}

func (r UnlinkRequest) toCore() signature.UnlinkRequest {
	return signature.UnlinkRequest{OwnerID: r.OwnerID, A: r.AddressA, B: r.AddressB, DeactivatedBy: r.DeactivatedBy, Reason: r.Reason}
}

// UnlinkResponse reports whether a row changed.
type UnlinkResponse struct {
	Deactivated bool `json:"deactivated"`
}

// ResolveRequest asks for the equivalence closure of an address.
type ResolveRequest struct {
	OwnerID            string            `json:"owner_id" validate:"notblank"`
	ContentAddress     ir.ContentAddress `json:"content_address" validate:"notblank"`
	IncludeEquivalents bool              `json:"include_equivalents"`
	MaxNodes           int               `json:"max_nodes,omitempty" validate:"gte=0"`
}

// ResolveResponse is the sorted closure.
type ResolveResponse struct {
	Addresses []ir.ContentAddress `json:"addresses"`
}

// ListFamiliesRequest asks for the signature families of some owners.
type ListFamiliesRequest struct {
	OwnerIDs    []string                  `json:"owner_ids" validate:"min=1,dive,notblank"`
	Summaries   []ir.FactSummary          `json:"summaries,omitempty"`
	Current     map[string]family.Current `json:"current,omitempty"`
	UnlinkedCap int                       `json:"unlinked_cap,omitempty" validate:"gte=0"`
}

// PlanRequest asks for an epoch plan. When Availability is nil it is
// fetched through the service's observer for Subject.
type PlanRequest struct {
	Subject      availability.Subject      `json:"subject"`
	Days         ir.DayRange               `json:"days"`
	Specified    []string                  `json:"specified,omitempty" validate:"dive,notblank"`
	InScope      []string                  `json:"in_scope,omitempty" validate:"dive,notblank"`
	Availability availability.Availability `json:"availability,omitempty"`
}

func (r PlanRequest) toCore() epoch.Request {
	return epoch.Request{
		OwnerID:   r.Subject.OwnerID,
		Days:      r.Days,
		Specified: partitionSet(r.Specified),
		InScope:   partitionSet(r.InScope),
	}
}

// AvailabilityRequest asks which partition families are stored per day.
// When Availability is nil it is read through the service's observer;
// Refresh drops cached availability for Subject first.
type AvailabilityRequest struct {
	Subject      availability.Subject      `json:"subject"`
	Days         ir.DayRange               `json:"days"`
	Refresh      bool                      `json:"refresh,omitempty"`
	Availability availability.Availability `json:"availability,omitempty"`
}

// AvailabilityResponse lists, for each stored day in range, the families
// of every retrieval group.
type AvailabilityResponse struct {
	Subject availability.Subject      `json:"subject"`
	Days    []availability.DaySummary `json:"days"`
}
