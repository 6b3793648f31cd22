package indicators

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/mr1hm/emdat-stats/internal/models"
)

// ISOFileName is the country → ISO code file inside the data directory.
const ISOFileName = "ISO_codes.csv"

// ISOTable translates EMDAT country names into ISO codes and back.
type ISOTable struct {
	codes   map[string]string
	country map[string]string
}

func NewISOTable(codes map[string]string) *ISOTable {
	t := &ISOTable{
		codes:   make(map[string]string, len(codes)),
		country: make(map[string]string, len(codes)),
	}
	for name, iso := range codes {
		t.add(name, iso)
	}
	return t
}

func (t *ISOTable) add(name, iso string) {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	name = strings.TrimSpace(name)
	t.codes[name] = iso
	if _, ok := t.country[iso]; !ok {
		t.country[iso] = name
	}
}

func LoadISOTable(path string) (*ISOTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening iso table: %w", err)
	}
	defer f.Close()

	t, err := ReadISOTable(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return t, nil
}

// ReadISOTable parses a CSV whose first column is the country name and which
// has an "ISO" column.
func ReadISOTable(r io.Reader) (*ISOTable, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("error parsing csv: %w", df.Err)
	}

	names := df.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: iso table needs a country and an ISO column, got %v", models.ErrInvalidField, names)
	}
	isoCol := ""
	for _, n := range names[1:] {
		if strings.EqualFold(strings.TrimSpace(n), "iso") {
			isoCol = n
			break
		}
	}
	if isoCol == "" {
		return nil, fmt.Errorf("%w: iso table has no ISO column, got %v", models.ErrInvalidField, names)
	}

	countries := df.Col(names[0]).Records()
	codes := df.Col(isoCol).Records()

	t := NewISOTable(nil)
	for i := range countries {
		if countries[i] == "" || codes[i] == "" {
			continue
		}
		t.add(countries[i], codes[i])
	}
	return t, nil
}

// Code returns the ISO code of an EMDAT country name.
func (t *ISOTable) Code(country string) (string, error) {
	iso, ok := t.codes[country]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrMissingISOCode, country)
	}
	return iso, nil
}

// Codes translates every country, failing on the first one that is unknown.
func (t *ISOTable) Codes(countries []string) ([]string, error) {
	out := make([]string, len(countries))
	for i, c := range countries {
		iso, err := t.Code(c)
		if err != nil {
			return nil, err
		}
		out[i] = iso
	}
	return out, nil
}

// Country returns the EMDAT name registered first for iso.
func (t *ISOTable) Country(iso string) (string, bool) {
	name, ok := t.country[strings.ToUpper(iso)]
	return name, ok
}

func (t *ISOTable) Len() int {
	return len(t.codes)
}
