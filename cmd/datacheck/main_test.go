package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nitromap/nitromap/internal/budget"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/emissions"
	"github.com/nitromap/nitromap/internal/geometry"
)

func TestPrintSummary(t *testing.T) {
	store := &dataset.Store{
		Emissions: emissions.NewTable([]emissions.Row{
			{Year: 2010, Landuse: "cropgrass", Units: map[domain.Level]string{domain.LevelKommune: "Aarhus"}},
			{Year: 2012, Landuse: "forest", Units: map[domain.Level]string{domain.LevelKommune: "Skive"}},
		}),
		Budget: budget.NewTable(map[string]budget.Entry{
			"kommune__Aarhus__cropgrass": {},
			"zzz":                        {},
			"aaa__b":                     {},
		}),
		Geometry: geometry.NewStore(),
		LoadedAt: time.Now(),
	}

	var out bytes.Buffer
	printSummary(&out, store)

	s := out.String()
	assert.Contains(t, s, "emissions  rows")
	assert.Contains(t, s, "2010-2012 (2)")
	assert.Contains(t, s, "kommune units")
	assert.Contains(t, s, "rejected keys")
	assert.Contains(t, s, "rejected budget keys:\n  aaa__b\n  zzz\n")
}

func TestYearRange(t *testing.T) {
	assert.Equal(t, "none", yearRange(nil))
	assert.Equal(t, "2010-2020 (11)", yearRange([]int{2010, 2011, 2012, 2013, 2014, 2015, 2016, 2017, 2018, 2019, 2020}))
}
