// Package region maps disclosure geography to basin labels via a static
// lookup table. The table is injected configuration: region definitions can
// change without touching allocation code.
package region

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Other is the fallback label for geography outside every defined basin.
const Other = "Other"

//go:embed regions.yaml
var defaultTable []byte

// Table is the on-disk shape of the basin definitions. Basin order matters:
// when a county appears in more than one basin, the first match wins.
type Table struct {
	Basins []Basin `yaml:"basins"`
}

// Basin names one basin and its member counties by state.
type Basin struct {
	Name   string       `yaml:"name"`
	States []StateGroup `yaml:"states"`
}

// StateGroup lists the counties of one state belonging to the basin.
type StateGroup struct {
	State    string   `yaml:"state"`
	Counties []string `yaml:"counties"`
}

// Classifier resolves (state, county) to a basin label. It never fails:
// unknown geography classifies as Other.
type Classifier struct {
	lookup map[string]string
	basins []string
}

// Load reads a basin table from a YAML file.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: read %s", path)
	}
	return parse(data)
}

// Default returns a classifier over the embedded basin table.
func Default() *Classifier {
	c, err := parse(defaultTable)
	if err != nil {
		// The embedded table is validated by tests; this is unreachable.
		panic(err)
	}
	return c
}

func parse(data []byte) (*Classifier, error) {
	var tbl Table
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return nil, eris.Wrap(err, "region: parse basin table")
	}
	if len(tbl.Basins) == 0 {
		return nil, eris.New("region: basin table is empty")
	}

	c := &Classifier{lookup: make(map[string]string)}
	for _, basin := range tbl.Basins {
		c.basins = append(c.basins, basin.Name)
		for _, sg := range basin.States {
			for _, county := range sg.Counties {
				key := lookupKey(sg.State, county)
				// First basin in declaration order wins.
				if _, exists := c.lookup[key]; !exists {
					c.lookup[key] = basin.Name
				}
			}
		}
	}
	return c, nil
}

// Classify returns the basin for a state/county pair, or Other. It always
// returns exactly one label and never errors.
func (c *Classifier) Classify(state, county string) string {
	if state == "" || county == "" {
		return Other
	}
	if basin, ok := c.lookup[lookupKey(state, county)]; ok {
		return basin
	}
	return Other
}

// Basins returns the basin names in declaration order.
func (c *Classifier) Basins() []string {
	out := make([]string, len(c.basins))
	copy(out, c.basins)
	return out
}

// lookupKey normalizes both sides of the comparison: trim, uppercase, strip
// punctuation, collapse runs of spaces.
func lookupKey(state, county string) string {
	return normalizeName(state) + "|" + normalizeName(county)
}

func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// punctuation dropped
		}
	}
	return strings.TrimRight(b.String(), " ")
}
