package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionNode_AncestorChain(t *testing.T) {
	region := &RegionNode{ID: 20, Name: "Mumbai", Type: RegionTypeCity, Path: "/1/5/20/"}

	assert.Equal(t, []int64{1, 5, 20}, region.AncestorChain())
}

func TestRegionNode_AncestorChain_Root(t *testing.T) {
	region := &RegionNode{ID: 1, Name: "Global", Type: RegionTypeGlobal, Path: "/1/"}

	assert.Equal(t, []int64{1}, region.AncestorChain())
}

func TestRegionNode_AncestorChain_EmptyAndMalformedTokens(t *testing.T) {
	region := &RegionNode{ID: 7, Path: "//1//x/7/"}

	assert.Equal(t, []int64{1, 7}, region.AncestorChain())
}
