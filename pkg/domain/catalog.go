package domain

import (
	"fmt"
	"slices"
)

// Module groups a set of experiments.
type Module struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Experiments []int  `json:"experiments" yaml:"experiments"`
}

// Catalog lists the selectable modules.
type Catalog struct {
	Modules []Module `json:"modules" yaml:"modules"`
}

// DefaultCatalog returns modules 0 to 5 with three experiments each.
func DefaultCatalog() Catalog {
	c := Catalog{}
	for i := 0; i <= 5; i++ {
		c.Modules = append(c.Modules, Module{
			ID:          i,
			Name:        fmt.Sprintf("Module %d", i),
			Experiments: []int{i*3 + 1, i*3 + 2, i*3 + 3},
		})
	}
	return c
}

// Lookup finds a module by number.
func (c Catalog) Lookup(module int) (Module, bool) {
	for _, m := range c.Modules {
		if m.ID == module {
			return m, true
		}
	}
	return Module{}, false
}

// Check returns ErrUnknownSelection unless the experiment belongs to the module.
func (c Catalog) Check(module, experiment int) error {
	if experiment < 1 {
		return fmt.Errorf("%w: experiment must be at least 1", ErrUnknownSelection)
	}
	m, ok := c.Lookup(module)
	if !ok {
		return fmt.Errorf("%w: module %d", ErrUnknownSelection, module)
	}
	if !slices.Contains(m.Experiments, experiment) {
		return fmt.Errorf("%w: experiment %d is not part of %s", ErrUnknownSelection, experiment, m.Name)
	}
	return nil
}

// Contains reports whether the experiment belongs to the module.
func (c Catalog) Contains(module, experiment int) bool {
	return c.Check(module, experiment) == nil
}
