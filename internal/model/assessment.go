package model

import "strings"

// DocStatus is the answer to a yes/no/partial documentation check.
type DocStatus string

const (
	DocYes     DocStatus = "yes"
	DocNo      DocStatus = "no"
	DocPartial DocStatus = "partial"
)

// ParseDocStatus normalizes free-form answers. Anything unrecognized is treated as "no".
func ParseDocStatus(s string) DocStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return DocYes
	case "partial", "partially":
		return DocPartial
	default:
		return DocNo
	}
}

// Valid reports whether s is one of the three known answers.
func (s DocStatus) Valid() bool {
	return s == DocYes || s == DocNo || s == DocPartial
}

// AssessmentInput is the field agent's record of a property visit.
type AssessmentInput struct {
	PostalCode             string    `json:"postal_code" yaml:"postal_code"`
	NeighbourConfirmation  DocStatus `json:"neighbour_confirmation" yaml:"neighbour_confirmation"`
	EmploymentProof        DocStatus `json:"employment_proof" yaml:"employment_proof"`
	AddressMatchingAadhaar DocStatus `json:"address_matching_aadhaar" yaml:"address_matching_aadhaar"`
	NearbyConditionText    string    `json:"nearby_condition" yaml:"nearby_condition"`
	RoadAccessText         string    `json:"road_access" yaml:"road_access"`
	RoadWidthText          string    `json:"road_width" yaml:"road_width"`
	NearbySoldPropertyText string    `json:"nearby_sold_property" yaml:"nearby_sold_property"`
	ImageCount             int       `json:"image_count" yaml:"image_count"`

	// Descriptive fields carried into the report. They do not affect the score.
	PropertyAddress string    `json:"property_address,omitempty" yaml:"property_address"`
	RentAgreement   DocStatus `json:"rent_agreement,omitempty" yaml:"rent_agreement"`
	AdditionalNotes string    `json:"additional_notes,omitempty" yaml:"additional_notes"`
}

// Normalize maps unknown documentation answers to "no" and clamps the image count.
func (in AssessmentInput) Normalize() AssessmentInput {
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.NeighbourConfirmation = ParseDocStatus(string(in.NeighbourConfirmation))
	in.EmploymentProof = ParseDocStatus(string(in.EmploymentProof))
	in.AddressMatchingAadhaar = ParseDocStatus(string(in.AddressMatchingAadhaar))
	if in.RentAgreement != "" {
		in.RentAgreement = ParseDocStatus(string(in.RentAgreement))
	}
	if in.ImageCount < 0 {
		in.ImageCount = 0
	}
	return in
}
