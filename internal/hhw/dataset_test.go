package hhw

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsabyss/internal/cycle"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/abyss_small.json")
	require.NoError(t, err)
	return data
}

func loadDataset(t *testing.T) *Dataset {
	t.Helper()
	fixed, err := CorrectScheduleKeys(loadFixture(t), cycle.DefaultAnchor)
	require.NoError(t, err)
	ds, err := Decode(fixed)
	require.NoError(t, err)
	return ds
}

func TestCorrectScheduleKeys(t *testing.T) {
	ds := loadDataset(t)

	var keys []string
	for _, e := range ds.Schedule() {
		keys = append(keys, e.Key)
	}
	want := []string{"2020-07-01 04:00:00", "2020-07-16 04:00:00"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("schedule keys mismatch (-want +got):\n%s", diff)
	}

	item, ok := ds.ScheduleItem("2020-07-16 04:00:00")
	require.True(t, ok)
	assert.Equal(t, "月光", item.Blessing.Name)
	assert.Equal(t, 1202, item.Arrangement[12], "string variant ids are accepted")
}

func TestCorrectScheduleKeys_KeepsFloorsRaw(t *testing.T) {
	fixed, err := CorrectScheduleKeys(loadFixture(t), cycle.DefaultAnchor)
	require.NoError(t, err)

	var raw struct {
		Floor map[string]map[string]struct {
			Chambers []struct {
				MonsterLvlOverwrite int
			}
		}
	}
	require.NoError(t, json.Unmarshal(fixed, &raw))
	assert.Equal(t, 59, raw.Floor["8"]["81"].Chambers[0].MonsterLvlOverwrite)

	// Decoding the corrected document twice gives the same levels.
	again, err := CorrectScheduleKeys(fixed, cycle.DefaultAnchor)
	require.NoError(t, err)
	ds, err := Decode(again)
	require.NoError(t, err)
	v, err := ds.Variant(8, "2020-07-01 04:00:00")
	require.NoError(t, err)
	assert.Equal(t, 60, v.Chambers[0].MonsterLevel)
}

func TestVariantResolution(t *testing.T) {
	ds := loadDataset(t)

	tests := []struct {
		name    string
		floor   int
		key     string
		wantKey string
		wantOK  bool
	}{
		{"low floor uses first variant", 8, "2020-07-01 04:00:00", "81", true},
		{"low floor ignores schedule", 8, "2099-01-01 04:00:00", "81", true},
		{"high floor uses arrangement", 12, "2020-07-01 04:00:00", "1201", true},
		{"high floor second period", 12, "2020-07-16 04:00:00", "1202", true},
		{"unknown period", 12, "2099-01-01 04:00:00", "", false},
		{"unknown floor", 5, "2020-07-01 04:00:00", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ds.VariantKey(tt.floor, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, got)
		})
	}

	_, err := ds.Variant(12, "2099-01-01 04:00:00")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNormalization(t *testing.T) {
	ds := loadDataset(t)

	v, err := ds.Variant(8, "2020-07-01 04:00:00")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ley Line Disorder: Pyro DMG +75%"}, v.Disorders)

	c, ok := v.Chamber(1)
	require.True(t, ok)
	assert.Equal(t, []string{"挑战剩余时间大于180秒", "挑战剩余时间大于120秒", "挑战剩余时间大于60秒"}, c.Conditions)
	assert.Equal(t, 60, c.MonsterLevel)
	assert.Equal(t, DurationFloor, c.PossibleBuff[0][0].Duration)
	assert.Equal(t, "https://example.test/img/m_a1.webp", c.Monsters.FirstHalf[0].Icon)
	assert.Nil(t, c.Monsters.SecondHalf)
	assert.Len(t, c.Monsters.Halves(), 1)

	require.Len(t, c.Reward, 1)
	assert.Equal(t, 20000, c.Reward[0].Count)
	assert.Equal(t, "https://example.test/img/i_202.webp", c.Reward[0].Icon)
	assert.Equal(t, 3, c.Reward[0].Rarity)

	_, ok = v.Chamber(2)
	assert.False(t, ok)

	v12, err := ds.Variant(12, "2020-07-01 04:00:00")
	require.NoError(t, err)
	c12 := v12.Chambers[0]
	assert.Equal(t, []string{"挑战剩余时间大于60秒", "守护目标完整度大于80%"}, c12.Conditions)
	assert.Equal(t, 2, c12.Monsters.Count())
	assert.Len(t, c12.Monsters.Halves(), 2)
}

func TestBuffDuration(t *testing.T) {
	tests := map[string]string{
		"Whole Floor":    DurationFloor,
		"Single Chamber": DurationChamber,
		"Instant":        DurationImmediate,
		"本间生效":           DurationChamber,
		"":               DurationImmediate,
	}
	for raw, want := range tests {
		var b BuffOption
		doc, _ := json.Marshal(map[string]string{"Time": raw})
		require.NoError(t, json.Unmarshal(doc, &b))
		assert.Equal(t, want, b.Duration, "raw %q", raw)
	}
}

func TestBlessingSegments(t *testing.T) {
	b := Blessing{ColorfulDetail: "<color=#f39000ff>攻击力提升</color=#f39000ff>，持续10秒。"}
	want := []Segment{
		{Text: "攻击力提升", Color: HighlightColor},
		{Text: "，持续10秒。"},
	}
	if diff := cmp.Diff(want, b.Segments()); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	plain := Blessing{ColorfulDetail: "普通 文本<br>"}
	assert.Equal(t, []Segment{{Text: "普通文本"}}, plain.Segments())

	assert.Empty(t, Blessing{}.Segments())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`[]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"Floor": {"x": {}}}`))
	assert.Error(t, err)

	_, err = CorrectScheduleKeys([]byte(`not json`), cycle.DefaultAnchor)
	assert.Error(t, err)
}
