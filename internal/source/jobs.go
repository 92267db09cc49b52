package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spigell/talentscore/internal/profile"
	"gopkg.in/yaml.v3"
)

type jobFile struct {
	Jobs []profile.JobPosting `yaml:"jobs"`
}

// LoadJobs reads job postings from a YAML or JSON file. The file holds a single
// posting, a list of postings or a mapping with a "jobs" list. Postings without
// an ID get a generated one.
func LoadJobs(name string) ([]profile.JobPosting, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	jobs, err := ParseJobs(data)
	if err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", name, err)
	}
	return jobs, nil
}

// ParseJobs decodes every YAML document in data.
func ParseJobs(data []byte) ([]profile.JobPosting, error) {
	var jobs []profile.JobPosting

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		decoded, err := decodeJobsNode(&node)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, decoded...)
	}

	if len(jobs) == 0 {
		return nil, errors.New("no job postings found")
	}

	for i := range jobs {
		if strings.TrimSpace(jobs[i].ID) == "" {
			jobs[i].ID = NewID()
		}
		jobs[i] = jobs[i].Normalize()
	}
	return jobs, nil
}

func decodeJobsNode(node *yaml.Node) ([]profile.JobPosting, error) {
	root := node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		var jobs []profile.JobPosting
		if err := root.Decode(&jobs); err != nil {
			return nil, err
		}
		return jobs, nil
	case yaml.MappingNode:
		if hasKey(root, "jobs") {
			var file jobFile
			if err := root.Decode(&file); err != nil {
				return nil, err
			}
			return file.Jobs, nil
		}
		var job profile.JobPosting
		if err := root.Decode(&job); err != nil {
			return nil, err
		}
		return []profile.JobPosting{job}, nil
	default:
		return nil, fmt.Errorf("line %d: expected a job posting or a list of postings", root.Line)
	}
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}
