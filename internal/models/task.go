// internal/models/task.go
package models

import (
	"fmt"
	"strings"
)

// Persona identifiers accepted by the task endpoint.
const (
	PersonaShopper     = "shopper"
	PersonaRider       = "rider"
	PersonaPatient     = "patient"
	PersonaCoordinator = "coordinator"
)

// TaskPayload is the raw JSON body of a task submission. Which fields are
// meaningful depends on the persona; ParseTaskPayload narrows it to a typed
// request.
type TaskPayload struct {
	Persona   string             `json:"persona"`
	Product   string             `json:"product,omitempty"`
	Pickup    string             `json:"pickup,omitempty"`
	Drop      string             `json:"drop,omitempty"`
	Medicine  string             `json:"medicine,omitempty"`
	EventName string             `json:"event_name,omitempty"`
	GuestList []Guest            `json:"guest_list,omitempty"`
	Menu      []string           `json:"menu,omitempty"`
	Logistics []LogisticsRequest `json:"logistics,omitempty"`
}

// Guest is an invitee on a coordinator task.
type Guest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LogisticsRequest is a per-guest ride booking inside a coordinator task.
type LogisticsRequest struct {
	GuestName string `json:"guest_name"`
	Pickup    string `json:"pickup"`
	Drop      string `json:"drop"`
}

// TaskRequest is a validated, persona-specific task.
type TaskRequest interface {
	Persona() string
}

// ShopperRequest compares a product across shopping platforms.
type ShopperRequest struct {
	Product string
}

func (ShopperRequest) Persona() string { return PersonaShopper }

// RiderRequest compares a route across ride-hailing platforms.
type RiderRequest struct {
	Pickup string
	Drop   string
}

func (RiderRequest) Persona() string { return PersonaRider }

// PatientRequest compares a medicine across pharmacy platforms.
type PatientRequest struct {
	Medicine string
}

func (PatientRequest) Persona() string { return PersonaPatient }

// CoordinatorRequest runs the multi-stage event workflow. An empty Menu
// defers to the workflow's preference source.
type CoordinatorRequest struct {
	EventName string
	GuestList []Guest
	Menu      []string
	Logistics []LogisticsRequest
}

func (CoordinatorRequest) Persona() string { return PersonaCoordinator }

// ParseTaskPayload validates a raw payload and narrows it to the typed request
// for its persona. Unknown personas and missing required fields are rejected.
func ParseTaskPayload(p TaskPayload) (TaskRequest, error) {
	switch strings.ToLower(strings.TrimSpace(p.Persona)) {
	case PersonaShopper:
		if strings.TrimSpace(p.Product) == "" {
			return nil, fmt.Errorf("shopper task requires a product")
		}
		return ShopperRequest{Product: p.Product}, nil

	case PersonaRider:
		if strings.TrimSpace(p.Pickup) == "" || strings.TrimSpace(p.Drop) == "" {
			return nil, fmt.Errorf("rider task requires pickup and drop")
		}
		return RiderRequest{Pickup: p.Pickup, Drop: p.Drop}, nil

	case PersonaPatient:
		if strings.TrimSpace(p.Medicine) == "" {
			return nil, fmt.Errorf("patient task requires a medicine")
		}
		return PatientRequest{Medicine: p.Medicine}, nil

	case PersonaCoordinator:
		if strings.TrimSpace(p.EventName) == "" {
			return nil, fmt.Errorf("coordinator task requires an event name")
		}
		if len(p.GuestList) == 0 {
			return nil, fmt.Errorf("coordinator task requires at least one guest")
		}
		for i, g := range p.GuestList {
			if strings.TrimSpace(g.Name) == "" {
				return nil, fmt.Errorf("guest %d is missing a name", i)
			}
		}
		return CoordinatorRequest{
			EventName: p.EventName,
			GuestList: p.GuestList,
			Menu:      p.Menu,
			Logistics: p.Logistics,
		}, nil

	default:
		return nil, fmt.Errorf("unknown persona %q", p.Persona)
	}
}
