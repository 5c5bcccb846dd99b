package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// containerRecord is the stored form of a container. The notified set is
// kept as a sorted list.
type containerRecord struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Resources map[string]stockRecord `json:"resources"`
	Notified  []string               `json:"notified"`
}

type stockRecord struct {
	Amount       float64   `json:"amount"`
	DailyUpkeep  float64   `json:"daily_upkeep"`
	LastRefilled time.Time `json:"last_refilled"`
}

// EncodeContainers serializes a collection as a JSON array.
func EncodeContainers(containers []model.Container) ([]byte, error) {
	records := make([]containerRecord, 0, len(containers))
	for _, c := range containers {
		rec := containerRecord{
			ID:        c.ID,
			Name:      c.Name,
			Resources: make(map[string]stockRecord, len(c.Resources)),
			Notified:  make([]string, 0, c.Notified.Len()),
		}
		for k, s := range c.Resources {
			rec.Resources[string(k)] = stockRecord{
				Amount:       s.Amount,
				DailyUpkeep:  s.DailyUpkeep,
				LastRefilled: s.LastRefilled,
			}
		}
		for _, k := range c.Notified.Sorted() {
			rec.Notified = append(rec.Notified, string(k))
		}
		records = append(records, rec)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode containers: %w", err)
	}
	return data, nil
}

// DecodeContainers parses a stored collection. Entries that cannot be
// parsed, lack an id, repeat an earlier id or track no known kind are
// discarded and counted in skipped. Unknown kinds are dropped, negative
// quantities are clamped to zero and notified kinds are limited to those the
// container tracks. An error is returned only when data is not a JSON array.
func DecodeContainers(data []byte) (containers []model.Container, skipped int, err error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode containers: %w", err)
	}

	containers = make([]model.Container, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		var rec containerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		c, ok := rec.container()
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[c.ID]; dup {
			skipped++
			continue
		}
		seen[c.ID] = struct{}{}
		containers = append(containers, c)
	}
	return containers, skipped, nil
}

func (rec containerRecord) container() (model.Container, bool) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return model.Container{}, false
	}

	resources := make(map[model.ResourceKind]model.ResourceStock, len(rec.Resources))
	for name, s := range rec.Resources {
		kind := model.ResourceKind(name)
		if !kind.Valid() || s.LastRefilled.IsZero() {
			continue
		}
		resources[kind] = model.ResourceStock{
			Amount:       model.ClampNonNegative(s.Amount),
			DailyUpkeep:  model.ClampNonNegative(s.DailyUpkeep),
			LastRefilled: s.LastRefilled,
		}
	}
	if len(resources) == 0 {
		return model.Container{}, false
	}

	notified := model.NewKindSet()
	for _, name := range rec.Notified {
		kind := model.ResourceKind(name)
		if _, tracked := resources[kind]; tracked {
			notified[kind] = struct{}{}
		}
	}

	return model.Container{
		ID:        id,
		Name:      rec.Name,
		Resources: resources,
		Notified:  notified,
	}, true
}
