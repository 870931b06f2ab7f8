// Package inventory serves customer snapshots and candidate vehicles from a
// YAML file.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a customer or vehicle ID is not in the file.
var ErrNotFound = errors.New("not found")

// File is the on-disk layout.
type File struct {
	Customers []pricing.CustomerSnapshot `yaml:"customers"`
	Vehicles  []pricing.VehicleCandidate `yaml:"vehicles"`
}

// Filter narrows the candidate list before any pricing is done. Zero values
// disable the corresponding check.
type Filter struct {
	MaxVehicleAgeYears int     `mapstructure:"maxVehicleAgeYears" yaml:"maxVehicleAgeYears,omitempty"`
	MaxMileage         int     `mapstructure:"maxMileage" yaml:"maxMileage,omitempty"`
	MaxPriceMultiple   float64 `mapstructure:"maxPriceMultiple" yaml:"maxPriceMultiple,omitempty"`
	ReferenceYear      int     `mapstructure:"referenceYear" yaml:"referenceYear,omitempty"`
}

// Allows reports whether vehicle passes the filter for customer.
func (f Filter) Allows(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate) bool {
	if f.MaxVehicleAgeYears > 0 && vehicle.Year > 0 && f.ReferenceYear-vehicle.Year > f.MaxVehicleAgeYears {
		return false
	}
	if f.MaxMileage > 0 && vehicle.Mileage > f.MaxMileage {
		return false
	}
	if f.MaxPriceMultiple > 0 && vehicle.Price > customer.CurrentVehiclePrice*f.MaxPriceMultiple {
		return false
	}
	return true
}

// Store is an in-memory, read-only view of an inventory file.
type Store struct {
	logger    *zap.Logger
	filter    Filter
	customers map[string]pricing.CustomerSnapshot
	vehicles  []pricing.VehicleCandidate
	byID      map[string]int
}

// Load reads and indexes the inventory file at path.
func Load(logger *zap.Logger, path string, filter Filter) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading inventory file, %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to decode inventory %s: %w", path, err)
	}
	return New(logger, file, filter)
}

// New indexes an already decoded inventory. Duplicate IDs are rejected.
func New(logger *zap.Logger, file File, filter Filter) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		logger:    logger,
		filter:    filter,
		customers: make(map[string]pricing.CustomerSnapshot, len(file.Customers)),
		vehicles:  file.Vehicles,
		byID:      make(map[string]int, len(file.Vehicles)),
	}
	for _, customer := range file.Customers {
		if _, ok := s.customers[customer.ID]; ok {
			return nil, fmt.Errorf("duplicate customer id %q", customer.ID)
		}
		s.customers[customer.ID] = customer
	}
	for i, vehicle := range file.Vehicles {
		if _, ok := s.byID[vehicle.ID]; ok {
			return nil, fmt.Errorf("duplicate vehicle id %q", vehicle.ID)
		}
		s.byID[vehicle.ID] = i
	}

	logger.Debug("loaded inventory",
		zap.String("op", "inventory.New"),
		zap.Int("customers", len(s.customers)),
		zap.Int("vehicles", len(s.vehicles)),
	)
	return s, nil
}

// CustomerIDs returns every customer ID in sorted order.
func (s *Store) CustomerIDs() []string {
	ids := make([]string, 0, len(s.customers))
	for id := range s.customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FetchCustomer returns the snapshot for id.
func (s *Store) FetchCustomer(ctx context.Context, id string) (pricing.CustomerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return pricing.CustomerSnapshot{}, err
	}
	customer, ok := s.customers[id]
	if !ok {
		return pricing.CustomerSnapshot{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return customer, nil
}

// FetchCandidateVehicles returns the vehicles that pass the filter for
// customer, in file order.
func (s *Store) FetchCandidateVehicles(ctx context.Context, customer pricing.CustomerSnapshot) ([]pricing.VehicleCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates := make([]pricing.VehicleCandidate, 0, len(s.vehicles))
	for _, vehicle := range s.vehicles {
		if s.filter.Allows(customer, vehicle) {
			candidates = append(candidates, vehicle)
		}
	}

	s.logger.Debug("filtered candidate vehicles",
		zap.String("op", "inventory.FetchCandidateVehicles"),
		zap.String("customer", customer.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("filtered", len(s.vehicles)-len(candidates)),
	)
	return candidates, nil
}

// Vehicle returns the vehicle with id regardless of the filter.
func (s *Store) Vehicle(id string) (pricing.VehicleCandidate, error) {
	i, ok := s.byID[id]
	if !ok {
		return pricing.VehicleCandidate{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return s.vehicles[i], nil
}
