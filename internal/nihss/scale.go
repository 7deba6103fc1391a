// Package nihss implements the NIH Stroke Scale scoring rules: the fixed item
// table, the coma protocol overrides, totals and severity bands.
package nihss

// UntestableCode is the option code for responses that could not be assessed.
const UntestableCode = "UN"

// ComaItemID is the level of consciousness item that drives the coma protocol.
const ComaItemID = "1a"

// ComaScore is the 1a score that activates the coma protocol.
const ComaScore = 3

// MaxTotal is the highest total the scale can produce.
const MaxTotal = 42

// Option is one response for an item. Untestable options always score 0.
type Option struct {
	Code       string `json:"code" yaml:"code"`
	Label      string `json:"label" yaml:"label"`
	Points     int    `json:"points" yaml:"points"`
	Untestable bool   `json:"untestable,omitempty" yaml:"untestable,omitempty"`
}

// Score returns the points the option contributes to the total.
func (o Option) Score() int {
	if o.Untestable {
		return 0
	}
	return o.Points
}

// Item is a single scale item with its ordered options.
type Item struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Options []Option `json:"options" yaml:"options"`
}

func scored(labels ...string) []Option {
	opts := make([]Option, len(labels))
	for i, label := range labels {
		opts[i] = Option{Code: string(rune('0' + i)), Label: label, Points: i}
	}
	return opts
}

func withUntestable(opts []Option) []Option {
	return append(opts, Option{Code: UntestableCode, Label: "Untestable", Untestable: true})
}

func motor() []Option {
	return withUntestable(scored(
		"No drift",
		"Drift",
		"Some effort against gravity",
		"No effort against gravity",
		"No movement",
	))
}

var items = []Item{
	{ID: "1a", Name: "Level of Consciousness", Options: scored(
		"Alert",
		"Not alert; but arousable",
		"Not alert; requires stimulation",
		"Coma",
	)},
	{ID: "1b", Name: "LOC Questions", Options: scored(
		"Answers both correctly",
		"Answers one correctly",
		"Answers neither correctly",
	)},
	{ID: "1c", Name: "LOC Commands", Options: scored(
		"Performs both correctly",
		"Performs one correctly",
		"Performs neither correctly",
	)},
	{ID: "2", Name: "Best Gaze", Options: scored(
		"Normal",
		"Partial gaze palsy",
		"Forced deviation",
	)},
	{ID: "3", Name: "Visual Fields", Options: scored(
		"No visual loss",
		"Partial hemianopia",
		"Complete hemianopia",
		"Bilateral hemianopia",
	)},
	{ID: "4", Name: "Facial Palsy", Options: scored(
		"Normal movement",
		"Minor paralysis",
		"Partial paralysis",
		"Complete paralysis",
	)},
	{ID: "5a", Name: "Left Arm Motor", Options: motor()},
	{ID: "5b", Name: "Right Arm Motor", Options: motor()},
	{ID: "6a", Name: "Left Leg Motor", Options: motor()},
	{ID: "6b", Name: "Right Leg Motor", Options: motor()},
	{ID: "7", Name: "Limb Ataxia", Options: withUntestable(scored(
		"Absent",
		"Present in one limb",
		"Present in two limbs",
	))},
	{ID: "8", Name: "Sensory", Options: scored(
		"Normal",
		"Mild-to-moderate loss",
		"Severe-to-total loss",
	)},
	{ID: "9", Name: "Best Language", Options: scored(
		"No aphasia",
		"Mild-to-moderate aphasia",
		"Severe aphasia",
		"Mute/Global aphasia",
	)},
	{ID: "10", Name: "Dysarthria", Options: withUntestable(scored(
		"Normal",
		"Mild-to-moderate dysarthria",
		"Severe dysarthria",
	))},
	{ID: "11", Name: "Extinction/Inattention", Options: scored(
		"No abnormality",
		"Visual/tactile/auditory inattention",
		"Profound hemi-inattention",
	)},
}

// comaOverrides holds the fixed scores forced while item 1a indicates coma.
var comaOverrides = map[string]int{
	"1b": 2,
	"1c": 2,
	"2":  1,
	"3":  1,
	"4":  2,
	"5a": 4,
	"5b": 4,
	"6a": 4,
	"6b": 4,
	"7":  0,
	"8":  2,
	"9":  3,
	"10": 2,
	"11": 2,
}

var itemIndex = func() map[string]int {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		idx[item.ID] = i
	}
	return idx
}()

// Items returns a copy of the scale in presentation order.
func Items() []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = Item{ID: item.ID, Name: item.Name, Options: append([]Option(nil), item.Options...)}
	}
	return out
}

// Lookup returns the item with the given identifier.
func Lookup(itemID string) (Item, bool) {
	i, ok := itemIndex[itemID]
	if !ok {
		return Item{}, false
	}
	return items[i], true
}

// ComaOverride reports the forced coma score for an item, if it has one.
func ComaOverride(itemID string) (int, bool) {
	v, ok := comaOverrides[itemID]
	return v, ok
}

// OptionIndex resolves an option code to its index within the item.
func (it Item) OptionIndex(code string) (int, bool) {
	for i, opt := range it.Options {
		if opt.Code == code {
			return i, true
		}
	}
	return 0, false
}

// choiceFor returns the first scored option worth exactly points.
func (it Item) choiceFor(points int) int {
	for i, opt := range it.Options {
		if !opt.Untestable && opt.Points == points {
			return i
		}
	}
	return 0
}
