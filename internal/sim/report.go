package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// reportTimeLayout is the UTC timestamp layout embedded in report file names.
const reportTimeLayout = "20060102_150405"

// SimReport is the write-once result of a batch.
type SimReport struct {
	BatchID     string        `json:"batch_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Config      SimConfig     `json:"config"`
	BaseSeed    uint64        `json:"base_seed"`
	TickSeconds float64       `json:"tick_seconds"`
	Summary     Summary       `json:"summary"`
	Runs        []RunStats    `json:"runs"`
}

// ZoneReach summarizes how often and how quickly runs first entered a zone.
type ZoneReach struct {
	Zone        uint32  `json:"zone"`
	Runs        uint32  `json:"runs"`
	Rate        float64 `json:"rate_percent"`
	MeanSeconds float64 `json:"mean_seconds"`
}

// Summary holds the aggregate statistics of a batch.
type Summary struct {
	Runs                uint32             `json:"runs"`
	Completed           uint32             `json:"completed"`
	CompletionRate      float64            `json:"completion_rate_percent"`
	MeanTicks           float64            `json:"mean_ticks"`
	MeanTicksToTarget   float64            `json:"mean_ticks_to_target"`
	MedianTicksToTarget float64            `json:"median_ticks_to_target"`
	P90TicksToTarget    float64            `json:"p90_ticks_to_target"`
	MeanHoursToTarget   float64            `json:"mean_hours_to_target"`
	MeanFinalLevel      float64            `json:"mean_final_level"`
	MeanFinalZone       float64            `json:"mean_final_zone"`
	MeanFinalPrestige   float64            `json:"mean_final_prestige"`
	MeanKills           float64            `json:"mean_kills"`
	MeanBossKills       float64            `json:"mean_boss_kills"`
	MeanDeaths          float64            `json:"mean_deaths"`
	MeanLevelUps        float64            `json:"mean_level_ups"`
	MeanPrestiges       float64            `json:"mean_prestiges"`
	MeanItemsDropped    float64            `json:"mean_items_dropped"`
	MeanItemsEquipped   float64            `json:"mean_items_equipped"`
	DropsByRarity       map[string]uint64  `json:"drops_by_rarity"`
	RarityShare         map[string]float64 `json:"rarity_share_percent"`
	FinalZoneCounts     map[uint32]uint32  `json:"final_zone_counts"`
	ZoneReach           []ZoneReach        `json:"zone_reach"`
	MeanDungeons        float64            `json:"mean_dungeons"`
	MeanFishingSpots    float64            `json:"mean_fishing_spots"`
	MeanChallenges      float64            `json:"mean_challenges"`
	HavenRate           float64            `json:"haven_rate_percent"`
}

// Aggregate computes a Summary over runs. It never mutates runs.
//
// Postcondition: an empty runs slice yields a zero Summary with non-nil maps.
func Aggregate(runs []RunStats, tickSeconds float64) Summary {
	s := Summary{
		Runs:            uint32(len(runs)),
		DropsByRarity:   make(map[string]uint64, inventory.NumRarities),
		RarityShare:     make(map[string]float64, inventory.NumRarities),
		FinalZoneCounts: make(map[uint32]uint32),
	}
	if len(runs) == 0 {
		return s
	}
	n := float64(len(runs))

	var (
		toTarget []float64
		drops    [inventory.NumRarities]uint64
		total    uint64
		haven    int
		reached  [balance.MaxZone]uint32
		reachSum [balance.MaxZone]float64
	)
	for _, r := range runs {
		s.MeanTicks += float64(r.Ticks)
		s.MeanFinalLevel += float64(r.FinalLevel)
		s.MeanFinalZone += float64(r.FinalZone)
		s.MeanFinalPrestige += float64(r.FinalPrestige)
		s.MeanKills += float64(r.Kills)
		s.MeanBossKills += float64(r.BossKills)
		s.MeanDeaths += float64(r.Deaths)
		s.MeanLevelUps += float64(r.LevelUps)
		s.MeanPrestiges += float64(r.Prestiges)
		s.MeanItemsDropped += float64(r.ItemsDropped)
		s.MeanItemsEquipped += float64(r.ItemsEquipped)
		s.MeanDungeons += float64(r.Dungeons)
		s.MeanFishingSpots += float64(r.FishingSpots)
		s.MeanChallenges += float64(r.Challenges)
		if r.HavenFound {
			haven++
		}
		if r.ReachedTarget {
			s.Completed++
			toTarget = append(toTarget, float64(r.TicksToTarget))
		}
		for i, c := range r.DropsByRarity {
			drops[i] += c
			total += c
		}
		s.FinalZoneCounts[r.FinalZone]++
		for i, t := range r.ZoneReachedTick {
			if i >= balance.MaxZone {
				break
			}
			reached[i]++
			reachSum[i] += float64(t) * tickSeconds
		}
	}

	for _, p := range []*float64{
		&s.MeanTicks, &s.MeanFinalLevel, &s.MeanFinalZone, &s.MeanFinalPrestige,
		&s.MeanKills, &s.MeanBossKills, &s.MeanDeaths, &s.MeanLevelUps, &s.MeanPrestiges,
		&s.MeanItemsDropped, &s.MeanItemsEquipped, &s.MeanDungeons, &s.MeanFishingSpots,
		&s.MeanChallenges,
	} {
		*p /= n
	}
	s.CompletionRate = 100 * float64(s.Completed) / n
	s.HavenRate = 100 * float64(haven) / n

	if len(toTarget) > 0 {
		slices.Sort(toTarget)
		var sum float64
		for _, v := range toTarget {
			sum += v
		}
		s.MeanTicksToTarget = sum / float64(len(toTarget))
		s.MedianTicksToTarget = percentile(toTarget, 0.5)
		s.P90TicksToTarget = percentile(toTarget, 0.9)
		s.MeanHoursToTarget = s.MeanTicksToTarget * tickSeconds / 3600
	}

	for _, rarity := range inventory.AllRarities {
		s.DropsByRarity[rarity.String()] = drops[rarity]
		if total > 0 {
			s.RarityShare[rarity.String()] = 100 * float64(drops[rarity]) / float64(total)
		} else {
			s.RarityShare[rarity.String()] = 0
		}
	}

	for i := range reached {
		if reached[i] == 0 {
			continue
		}
		s.ZoneReach = append(s.ZoneReach, ZoneReach{
			Zone:        uint32(i + 1),
			Runs:        reached[i],
			Rate:        100 * float64(reached[i]) / n,
			MeanSeconds: reachSum[i] / float64(reached[i]),
		})
	}
	return s
}

// percentile returns the nearest-rank percentile of sorted values.
//
// Precondition: sorted is non-empty and ascending; 0 < p <= 1.
func percentile(sorted []float64, p float64) float64 {
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

// FileName returns the JSON report file name for a report generated at t.
func FileName(t time.Time) string {
	return "sim_report_" + t.UTC().Format(reportTimeLayout) + ".json"
}

// JSON renders the report as indented JSON.
func (r *SimReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// WriteJSON writes the report into dir under FileName(r.GeneratedAt) and returns the path.
//
// Precondition: dir exists and is writable.
func (r *SimReport) WriteJSON(dir string) (string, error) {
	data, err := r.JSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(r.GeneratedAt))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report %q: %w", path, err)
	}
	return path, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func f1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// Text renders the report as plain text with summary tables.
func (r *SimReport) Text() string {
	var b strings.Builder
	s := r.Summary
	b.WriteString(titleStyle.Render("Balance simulation report"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Batch %s, generated %s\n", r.BatchID, r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Runs: %d  Base seed: %d  Target zone: %d", s.Runs, r.BaseSeed, r.Config.TargetZone)
	if r.Config.SimulatePrestige {
		fmt.Fprintf(&b, "  Target prestige: %d", r.Config.TargetPrestige)
	}
	fmt.Fprintf(&b, "  Loot: %t\n\n", r.Config.SimulateLoot)

	if s.Runs == 0 {
		b.WriteString("No runs executed.\n")
		return b.String()
	}

	outcomes := newTable("Metric", "Value").Rows(
		[]string{"Reached target", fmt.Sprintf("%d/%d (%s%%)", s.Completed, s.Runs, f1(s.CompletionRate))},
		[]string{"Mean ticks to target", f1(s.MeanTicksToTarget)},
		[]string{"Median ticks to target", f1(s.MedianTicksToTarget)},
		[]string{"P90 ticks to target", f1(s.P90TicksToTarget)},
		[]string{"Mean hours to target", strconv.FormatFloat(s.MeanHoursToTarget, 'f', 2, 64)},
		[]string{"Mean final level", f1(s.MeanFinalLevel)},
		[]string{"Mean final zone", f1(s.MeanFinalZone)},
		[]string{"Mean final prestige", f1(s.MeanFinalPrestige)},
		[]string{"Mean kills", f1(s.MeanKills)},
		[]string{"Mean boss kills", f1(s.MeanBossKills)},
		[]string{"Mean deaths", f1(s.MeanDeaths)},
		[]string{"Mean prestiges", f1(s.MeanPrestiges)},
		[]string{"Mean items dropped", f1(s.MeanItemsDropped)},
		[]string{"Mean items equipped", f1(s.MeanItemsEquipped)},
		[]string{"Mean discoveries (dungeon/fishing/challenge)",
			fmt.Sprintf("%s / %s / %s", f1(s.MeanDungeons), f1(s.MeanFishingSpots), f1(s.MeanChallenges))},
		[]string{"Haven found", f1(s.HavenRate) + "%"},
	)
	b.WriteString(outcomes.String())
	b.WriteString("\n\n")

	rarity := newTable("Rarity", "Drops", "Share")
	for _, rr := range inventory.AllRarities {
		name := rr.String()
		rarity.Row(rr.Title(), strconv.FormatUint(s.DropsByRarity[name], 10), f1(s.RarityShare[name])+"%")
	}
	b.WriteString(rarity.String())
	b.WriteString("\n\n")

	zones := newTable("Zone", "Runs reached", "Rate", "Mean time (s)", "Final here")
	for _, z := range s.ZoneReach {
		zones.Row(
			strconv.FormatUint(uint64(z.Zone), 10),
			strconv.FormatUint(uint64(z.Runs), 10),
			f1(z.Rate)+"%",
			f1(z.MeanSeconds),
			strconv.FormatUint(uint64(s.FinalZoneCounts[z.Zone]), 10),
		)
	}
	b.WriteString(zones.String())
	b.WriteString("\n")
	return b.String()
}

// Header is the indexed summary of an archived report.
type Header struct {
	BatchID        string    `json:"batch_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	BaseSeed       uint64    `json:"base_seed"`
	Runs           uint32    `json:"runs"`
	TargetZone     uint32    `json:"target_zone"`
	CompletionRate float64   `json:"completion_rate_percent"`
}

// Header returns the archive summary of r.
func (r *SimReport) Header() Header {
	return Header{
		BatchID:        r.BatchID,
		GeneratedAt:    r.GeneratedAt,
		BaseSeed:       r.BaseSeed,
		Runs:           r.Summary.Runs,
		TargetZone:     r.Config.TargetZone,
		CompletionRate: r.Summary.CompletionRate,
	}
}

// ParseJSON decodes a report produced by JSON.
func ParseJSON(data []byte) (*SimReport, error) {
	var r SimReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}
