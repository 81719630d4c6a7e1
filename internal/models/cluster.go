package models

import "golang.org/x/text/language"

// ClusteringDocument is the input of a clustering algorithm, assembled from
// one hit.
type ClusteringDocument struct {
	ID       string
	Title    string
	Content  string
	URL      string
	Language *language.Base
}

// Text returns the title and content joined for term extraction.
func (d *ClusteringDocument) Text() string {
	switch {
	case d.Title == "":
		return d.Content
	case d.Content == "":
		return d.Title
	default:
		return d.Title + " . " + d.Content
	}
}

// Cluster is a node of the tree an algorithm produces.
type Cluster struct {
	ID          int
	Label       string
	Phrases     []string
	Score       float64
	OtherTopics bool
	Documents   []*ClusteringDocument
	Subclusters []*Cluster
}

// ClusterSeed is a caller-supplied cluster label tree used to continue a
// previous clustering run. A nil Label means the node had no usable label.
type ClusterSeed struct {
	Label       *string
	Subclusters []*ClusterSeed
}

// DocumentGroup is the response form of a Cluster. Documents holds hit ids.
type DocumentGroup struct {
	ID          int              `json:"id"`
	Label       string           `json:"label"`
	Phrases     []string         `json:"phrases"`
	Score       float64          `json:"score"`
	OtherTopics bool             `json:"other_topics"`
	Documents   []string         `json:"documents"`
	Subgroups   []*DocumentGroup `json:"clusters"`
}
