package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Capability is a permission label an actor can be granted. The set of
// capabilities is closed: only the constants below are valid.
type Capability string

// Constants for Capability
const (
	CapReadingsList   Capability = "readings.list"
	CapReadingsCreate Capability = "readings.create"
	CapReadingsEdit   Capability = "readings.edit"
	CapReadingsDelete Capability = "readings.delete"

	CapSchedulesList    Capability = "schedules.list"
	CapSchedulesListAll Capability = "schedules.list_all"
	CapSchedulesCreate  Capability = "schedules.create"

	CapSettingsManage Capability = "settings.manage"
	CapUsersManage    Capability = "users.manage"
)

// capabilityLabels holds the human readable permission names shown in the
// admin panel.
var capabilityLabels = map[Capability]string{
	CapReadingsList:     "Listar Leitura das Concessionárias",
	CapReadingsCreate:   "Criar Leitura das Concessionárias",
	CapReadingsEdit:     "Editar Leitura das Concessionárias",
	CapReadingsDelete:   "Excluir Leitura das Concessionárias",
	CapSchedulesList:    "Listar Agendamentos de Leituras",
	CapSchedulesListAll: "Listar Todos os Agendamentos de Leituras",
	CapSchedulesCreate:  "Criar Agendamentos de Leituras",
	CapSettingsManage:   "Gerenciar Configurações",
	CapUsersManage:      "Gerenciar Usuários",
}

// AllCapabilities returns every valid capability in a stable order.
func AllCapabilities() []Capability {
	all := make([]Capability, 0, len(capabilityLabels))
	for c := range capabilityLabels {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Valid reports whether the capability is one of the defined constants.
func (c Capability) Valid() bool {
	_, ok := capabilityLabels[c]
	return ok
}

// Label returns the display name of the capability.
func (c Capability) Label() string {
	return capabilityLabels[c]
}

// String implements the fmt.Stringer interface
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning an error for
// labels outside the closed set.
func ParseCapability(v string) (Capability, error) {
	c := Capability(v)
	if !c.Valid() {
		return "", fmt.Errorf("invalid capability: %s", v)
	}
	return c, nil
}

// UnmarshalJSON decodes a capability and rejects unknown values.
func (c *Capability) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("capability must be a JSON string")
	}
	parsed, err := ParseCapability(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CapabilitySet is a set of granted capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet creates a CapabilitySet from the passed capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Strings returns the sorted capability labels of the set.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// CapabilityInfo is the listing representation of a capability.
type CapabilityInfo struct {
	Capability Capability `json:"capability"`
	Label      string     `json:"label"`
}

// CapabilityInfos returns the listing representation of all capabilities.
func CapabilityInfos() []CapabilityInfo {
	all := AllCapabilities()
	out := make([]CapabilityInfo, len(all))
	for i, c := range all {
		out[i] = CapabilityInfo{
			Capability: c,
			Label:      c.Label(),
		}
	}
	return out
}
