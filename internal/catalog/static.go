package catalog

import (
	"context"
	"sync"
)

// StaticCatalog is an in-memory Catalog, used in development and tests in
// place of the discovery service.
type StaticCatalog struct {
	mu       sync.RWMutex
	programs []Program
	// byRun indexes program positions by member course-run key.
	byRun map[string][]int
}

// NewStaticCatalog creates a catalog serving the given programs.
func NewStaticCatalog(programs ...Program) *StaticCatalog {
	c := &StaticCatalog{byRun: make(map[string][]int)}
	for _, p := range programs {
		c.add(p)
	}
	return c
}

// AddProgram registers another program with the catalog.
func (c *StaticCatalog) AddProgram(p Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(p)
}

func (c *StaticCatalog) add(p Program) {
	idx := len(c.programs)
	c.programs = append(c.programs, p)
	for _, course := range p.Courses {
		for _, run := range course.CourseRuns {
			c.byRun[run.Key] = append(c.byRun[run.Key], idx)
		}
	}
}

// ProgramsForCourse returns the programs containing the given course run.
func (c *StaticCatalog) ProgramsForCourse(ctx context.Context, courseRunKey string) ([]Program, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	indices := c.byRun[courseRunKey]
	result := make([]Program, 0, len(indices))
	for _, i := range indices {
		result = append(result, c.programs[i])
	}
	return result, nil
}
