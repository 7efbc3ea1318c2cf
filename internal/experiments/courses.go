package experiments

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/pricing"
)

// ErrCourseNotFound is returned when a course key is not in the index.
var ErrCourseNotFound = errors.New("course not found")

// CourseIndex is the in-memory courseware view: course run key -> Course.
type CourseIndex struct {
	mu      sync.RWMutex
	courses map[string]Course
}

// NewCourseIndex creates an index serving the given courses.
func NewCourseIndex(courses ...Course) *CourseIndex {
	idx := &CourseIndex{courses: make(map[string]Course, len(courses))}
	for _, c := range courses {
		idx.courses[c.Key.String()] = c
	}
	return idx
}

// Add registers or replaces a course.
func (i *CourseIndex) Add(c Course) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.courses[c.Key.String()] = c
}

// Course returns the course for the given key.
func (i *CourseIndex) Course(key coursekey.CourseKey) (*Course, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	c, ok := i.courses[key.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, key)
	}
	return &c, nil
}

// courseFile is the YAML shape of a course catalog file.
type courseFile struct {
	Courses []struct {
		Key           string     `yaml:"key"`
		Start         *time.Time `yaml:"start"`
		End           *time.Time `yaml:"end"`
		SelfPaced     bool       `yaml:"self_paced"`
		VerifiedPrice string     `yaml:"verified_price"`
		VerifiedSKU   string     `yaml:"verified_sku"`
	} `yaml:"courses"`
}

// LoadCourseFile reads a YAML course catalog:
//
//	courses:
//	  - key: course-v1:edX+DemoX+Demo
//	    self_paced: true
//	    verified_price: "149.00"
//	    verified_sku: SKU-DEMO
//	    start: 2024-01-01T00:00:00Z
func LoadCourseFile(path string) (*CourseIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}

	var parsed courseFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse course file %s: %w", path, err)
	}

	idx := NewCourseIndex()
	for _, c := range parsed.Courses {
		key, err := coursekey.Parse(c.Key)
		if err != nil {
			return nil, fmt.Errorf("course file %s: %w", path, err)
		}
		course := Course{
			Key:         key,
			Start:       c.Start,
			End:         c.End,
			SelfPaced:   c.SelfPaced,
			VerifiedSKU: c.VerifiedSKU,
		}
		if c.VerifiedPrice != "" {
			price, err := pricing.Parse(c.VerifiedPrice)
			if err != nil {
				return nil, fmt.Errorf("course file %s, course %s: %w", path, c.Key, err)
			}
			course.VerifiedPrice = price
		}
		idx.Add(course)
	}
	return idx, nil
}
