package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/govscope/govscope/internal/utils"
	"github.com/govscope/govscope/pkg/graph"
)

const (
	idealPrivateRatio = 0.8

	ratioWeight  = 0.6
	namingWeight = 0.4
)

// NamingPurposes are the accepted bracket suffixes of the enterprise
// collection naming convention SQUAD-SERVICE-NAME[PURPOSE]. Kept as a var so
// a deployment can extend the list.
var NamingPurposes = []string{"SPEC", "STAGE", "DEV", "E2E", "MONITOR"}

var namingPattern = buildNamingPattern(NamingPurposes)

func buildNamingPattern(purposes []string) *regexp.Regexp {
	return regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)+\[(` + strings.Join(purposes, "|") + `)\]$`)
}

// MatchesNamingConvention is case-sensitive on purpose: lowercase squad or
// purpose names are convention violations.
func MatchesNamingConvention(name string) bool {
	return namingPattern.MatchString(name)
}

// organizationScore blends the private-workspace ratio deviation (60%) with
// naming-convention compliance (40%).
func (e *Engine) organizationScore(snap *graph.Snapshot) OrganizationScore {
	os := OrganizationScore{}

	if len(snap.Workspaces) == 0 {
		os.RatioScore = 100
	} else {
		private := 0
		for _, ws := range snap.Workspaces {
			if ws.Type == "private" {
				private++
			}
		}
		os.PrivateRatio = float64(private) / float64(len(snap.Workspaces))
		os.RatioScore = math.Max(0, 100-math.Abs(idealPrivateRatio-os.PrivateRatio)*200)
	}

	if len(snap.Collections) == 0 {
		os.NamingScore = 100
	} else {
		matching := 0
		for _, col := range snap.Collections {
			if MatchesNamingConvention(col.Name) {
				matching++
			}
		}
		os.NamingScore = float64(matching) / float64(len(snap.Collections)) * 100
	}

	os.Score = utils.Clamp(os.RatioScore*ratioWeight+os.NamingScore*namingWeight, 0, 100)
	return os
}
