// Package catalog holds the static reference data the scraper iterates over:
// competitive ranks, episodes and acts, each with a stable string encoding used
// in URL templating and row tagging.
package catalog

import (
	"fmt"
	"strings"
)

// Rank is a competitive tier. The integer value is the tier id the leaderboard
// site expects in its rank URL parameter.
type Rank int

const (
	Iron1      Rank = 3
	Iron2      Rank = 4
	Iron3      Rank = 5
	Bronze1    Rank = 6
	Bronze2    Rank = 7
	Bronze3    Rank = 8
	Silver1    Rank = 9
	Silver2    Rank = 10
	Silver3    Rank = 11
	Gold1      Rank = 12
	Gold2      Rank = 13
	Gold3      Rank = 14
	Platinum1  Rank = 15
	Platinum2  Rank = 16
	Platinum3  Rank = 17
	Diamond1   Rank = 18
	Diamond2   Rank = 19
	Diamond3   Rank = 20
	Ascendant1 Rank = 21
	Ascendant2 Rank = 22
	Ascendant3 Rank = 23
	Immortal1  Rank = 24
	Immortal2  Rank = 25
	Immortal3  Rank = 26
	Radiant    Rank = 27
)

type rankInfo struct {
	name  string
	label string
}

var rankInfos = map[Rank]rankInfo{
	Iron1:      {"iron1", "Iron 1"},
	Iron2:      {"iron2", "Iron 2"},
	Iron3:      {"iron3", "Iron 3"},
	Bronze1:    {"bronze1", "Bronze 1"},
	Bronze2:    {"bronze2", "Bronze 2"},
	Bronze3:    {"bronze3", "Bronze 3"},
	Silver1:    {"silver1", "Silver 1"},
	Silver2:    {"silver2", "Silver 2"},
	Silver3:    {"silver3", "Silver 3"},
	Gold1:      {"gold1", "Gold 1"},
	Gold2:      {"gold2", "Gold 2"},
	Gold3:      {"gold3", "Gold 3"},
	Platinum1:  {"platinum1", "Platinum 1"},
	Platinum2:  {"platinum2", "Platinum 2"},
	Platinum3:  {"platinum3", "Platinum 3"},
	Diamond1:   {"diamond1", "Diamond 1"},
	Diamond2:   {"diamond2", "Diamond 2"},
	Diamond3:   {"diamond3", "Diamond 3"},
	Ascendant1: {"ascendant1", "Ascendant 1"},
	Ascendant2: {"ascendant2", "Ascendant 2"},
	Ascendant3: {"ascendant3", "Ascendant 3"},
	Immortal1:  {"immortal1", "Immortal 1"},
	Immortal2:  {"immortal2", "Immortal 2"},
	Immortal3:  {"immortal3", "Immortal 3"},
	Radiant:    {"radiant", "Radiant"},
}

// Name is the placement tag written to rows, e.g. "immortal3".
func (r Rank) Name() string {
	if info, ok := rankInfos[r]; ok {
		return info.name
	}
	return fmt.Sprintf("rank%d", int(r))
}

// Label is the display form, e.g. "Immortal 3".
func (r Rank) Label() string {
	if info, ok := rankInfos[r]; ok {
		return info.label
	}
	return fmt.Sprintf("Rank %d", int(r))
}

func (r Rank) String() string { return r.Name() }

// Valid reports whether r is a known tier.
func (r Rank) Valid() bool {
	_, ok := rankInfos[r]
	return ok
}

// Ranks returns every tier, highest first. This is the query order of the
// fetch loop and therefore the row order of a persisted act table.
func Ranks() []Rank {
	out := make([]Rank, 0, len(rankInfos))
	for r := Radiant; r >= Iron1; r-- {
		out = append(out, r)
	}
	return out
}

// ParseRank resolves a rank by name ("immortal3") or label ("Immortal 3"),
// case-insensitively.
func ParseRank(s string) (Rank, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for r, info := range rankInfos {
		if info.name == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// Episode identifies a seasonal episode, encoded as "e1".."e8".
type Episode string

const (
	Episode1 Episode = "e1"
	Episode2 Episode = "e2"
	Episode3 Episode = "e3"
	Episode4 Episode = "e4"
	Episode5 Episode = "e5"
	Episode6 Episode = "e6"
	Episode7 Episode = "e7"
	Episode8 Episode = "e8"
)

// Episodes returns the known episodes, newest first.
func Episodes() []Episode {
	return []Episode{Episode8, Episode7, Episode6, Episode5, Episode4, Episode3, Episode2, Episode1}
}

// Act identifies an act within an episode, encoded as "act1".."act3".
type Act string

const (
	Act1 Act = "act1"
	Act2 Act = "act2"
	Act3 Act = "act3"
)

// Acts returns the acts in chronological order.
func Acts() []Act {
	return []Act{Act1, Act2, Act3}
}

// ParseEpisode accepts "e8", "E8" or a bare "8".
func ParseEpisode(s string) (Episode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(v, "e") {
		v = "e" + v
	}
	for _, e := range Episodes() {
		if string(e) == v {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown episode %q", s)
}

// ParseAct accepts "act2", "ACT2" or a bare "2".
func ParseAct(s string) (Act, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(v, "act") {
		v = "act" + v
	}
	for _, a := range Acts() {
		if string(a) == v {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown act %q", s)
}

// FormatEpisodeKey builds the combined identifier used in URLs and file
// names, e.g. FormatEpisodeKey(Episode8, Act2) == "e8act2".
func FormatEpisodeKey(ep Episode, act Act) string {
	return string(ep) + string(act)
}

// ParseEpisodeKey is the inverse of FormatEpisodeKey.
func ParseEpisodeKey(key string) (Episode, Act, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	i := strings.Index(k, "act")
	if i <= 0 {
		return "", "", fmt.Errorf("malformed episode key %q", key)
	}
	ep, err := ParseEpisode(k[:i])
	if err != nil {
		return "", "", err
	}
	act, err := ParseAct(k[i:])
	if err != nil {
		return "", "", err
	}
	return ep, act, nil
}
