// Package e2e provides end-to-end tests over a generated corpus of tagged
// items and user ratings.
package e2e

import (
	"fmt"
	"strings"
)

// Cluster is a group of items sharing the same tag set. Clusters are
// tag-disjoint, so cross-cluster similarity is exactly zero and every
// expected neighborhood can be computed by hand.
type Cluster struct {
	Name    string
	Tags    []string
	ItemIDs []int64
}

// Corpus holds the generated items, ratings, and the clusters they were
// generated from.
type Corpus struct {
	Clusters   []Cluster
	TagsCSV    string
	RatingsCSV string
	TotalItems int
}

const itemsPerCluster = 12

// likedPerUser is how many items of a cluster a liking user rates.
const likedPerUser = 6

// BuildCorpus generates 8 tag-disjoint clusters of 12 items each.
//
// Item IDs encode their cluster: cluster c (0-based) holds IDs
// (c+1)*100+1 .. (c+1)*100+12. Each item carries all of its cluster's tags
// plus one unique signature tag, so within a cluster every pair of items has
// the same positive similarity and items from different clusters have none.
//
// Ratings follow a fixed scheme. Users 1-8: user u likes cluster u-1 (rates
// its items 1-6 with 5.0) and dislikes cluster u mod 8 (rates its items 1-3
// with 1.0). Users 9-16: user u likes cluster u-9, rating its items 7-12
// with 5.0, so every cluster has rated items in both halves.
func BuildCorpus() *Corpus {
	defs := []struct {
		name string
		tags []string
	}{
		{"action", []string{"action", "explosions", "car_chase"}},
		{"comedy", []string{"comedy", "slapstick", "one_liners"}},
		{"horror", []string{"horror", "jump_scares", "haunted_house"}},
		{"romance", []string{"romance", "meet_cute", "happy_ending"}},
		{"scifi", []string{"science_fiction", "space_travel", "aliens"}},
		{"documentary", []string{"documentary", "interviews", "archive_footage"}},
		{"animation", []string{"animation", "hand_drawn", "talking_animals"}},
		{"thriller", []string{"thriller", "plot_twist", "cat_and_mouse"}},
	}

	var tags strings.Builder
	clusters := make([]Cluster, 0, len(defs))
	total := 0
	for c, def := range defs {
		cluster := Cluster{Name: def.name, Tags: def.tags}
		for j := 1; j <= itemsPerCluster; j++ {
			id := int64((c+1)*100 + j)
			cluster.ItemIDs = append(cluster.ItemIDs, id)
			for _, tag := range def.tags {
				fmt.Fprintf(&tags, "%d,%s\n", id, tag)
			}
			fmt.Fprintf(&tags, "%d,sig %d\n", id, id)
			total++
		}
		clusters = append(clusters, cluster)
	}

	var ratings strings.Builder
	for u := 1; u <= 8; u++ {
		liked := clusters[u-1]
		for _, id := range liked.ItemIDs[:likedPerUser] {
			fmt.Fprintf(&ratings, "%d,%d,5.0\n", u, id)
		}
		disliked := clusters[u%8]
		for _, id := range disliked.ItemIDs[:3] {
			fmt.Fprintf(&ratings, "%d,%d,1.0\n", u, id)
		}
	}
	for u := 9; u <= 16; u++ {
		liked := clusters[u-9]
		for _, id := range liked.ItemIDs[likedPerUser:] {
			fmt.Fprintf(&ratings, "%d,%d,5.0\n", u, id)
		}
	}

	return &Corpus{
		Clusters:   clusters,
		TagsCSV:    tags.String(),
		RatingsCSV: ratings.String(),
		TotalItems: total,
	}
}

// ClusterOf returns the cluster containing itemID, or nil.
func (c *Corpus) ClusterOf(itemID int64) *Cluster {
	for i := range c.Clusters {
		for _, id := range c.Clusters[i].ItemIDs {
			if id == itemID {
				return &c.Clusters[i]
			}
		}
	}
	return nil
}
