package probe

import (
	"dbprobe/internal/models"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind selects how the first row of the probe query is summarised.
type Kind int

const (
	// RowCount reads column 0 as an integer row count.
	RowCount Kind = iota
	// FirstRow reports column 0 of the first row as-is.
	FirstRow
)

func (k Kind) String() string {
	switch k {
	case RowCount:
		return models.ProbeVariantRowCount
	case FirstRow:
		return models.ProbeVariantFirstRow
	default:
		return "unknown"
	}
}

// Configuration keys read on every request.
const (
	KeyDeploymentMethod      = "DEPLOYMENT_METHOD"
	KeyConnectionString      = "ConnectionString"
	KeyConnectionStringUpper = "CONNECTION_STRING"
)

// Default queries and status wording.
const (
	DefaultRowCountQuery     = "select count(*) from SalesLT.Product"
	DefaultFirstRowQuery     = "SELECT * FROM DemoTable"
	DefaultConnectFailedText = "Couldn't open db connection: %s"
	DefaultQueryFailedText   = "Connected to DB but no data found: %s"
	DefaultRowCountConnected = "Connected to db, %d rows found"
	DefaultFirstRowConnected = "Successfully connected to the db containing info for %v"
)

// Variant fixes everything that differs between deployments of the probe:
// which keys are read, which query runs and how the outcome is worded.
type Variant struct {
	Kind          Kind
	DeploymentKey string
	ConnectionKey string
	Query         string
	Templates     models.ProbeTemplates
}

// RowCountVariant counts the rows of the AdventureWorksLT product table.
func RowCountVariant() Variant {
	return Variant{
		Kind:          RowCount,
		DeploymentKey: KeyDeploymentMethod,
		ConnectionKey: KeyConnectionString,
		Query:         DefaultRowCountQuery,
		Templates: models.ProbeTemplates{
			Connected:     DefaultRowCountConnected,
			ConnectFailed: DefaultConnectFailedText,
			QueryFailed:   DefaultQueryFailedText,
		},
	}
}

// FirstRowVariant samples the first column of DemoTable.
func FirstRowVariant() Variant {
	return Variant{
		Kind:          FirstRow,
		DeploymentKey: KeyDeploymentMethod,
		ConnectionKey: KeyConnectionStringUpper,
		Query:         DefaultFirstRowQuery,
		Templates: models.ProbeTemplates{
			Connected:     DefaultFirstRowConnected,
			ConnectFailed: DefaultConnectFailedText,
			QueryFailed:   DefaultQueryFailedText,
		},
	}
}

// VariantFor builds the variant named in cfg and applies its query and
// template overrides.
func VariantFor(cfg models.ProbeConfig) (Variant, error) {
	var v Variant
	switch cfg.Variant {
	case models.ProbeVariantRowCount, "":
		v = RowCountVariant()
	case models.ProbeVariantFirstRow:
		v = FirstRowVariant()
	default:
		return Variant{}, fmt.Errorf("unknown probe variant: %s", cfg.Variant)
	}

	if cfg.Query != "" {
		v.Query = cfg.Query
	}

	var connectedSample any = "DemoValue"
	if v.Kind == RowCount {
		connectedSample = int64(0)
	}

	overrides := []struct {
		name   string
		src    string
		sample any
		dst    *string
	}{
		{"connected", cfg.Templates.Connected, connectedSample, &v.Templates.Connected},
		{"connect_failed", cfg.Templates.ConnectFailed, "dial tcp: connection refused", &v.Templates.ConnectFailed},
		{"query_failed", cfg.Templates.QueryFailed, "no such table", &v.Templates.QueryFailed},
	}
	for _, o := range overrides {
		if o.src == "" {
			continue
		}
		if err := checkTemplate(o.src, o.sample); err != nil {
			return Variant{}, fmt.Errorf("invalid %s template: %w", o.name, err)
		}
		*o.dst = o.src
	}

	return v, nil
}

// checkTemplate requires exactly one formatting verb, and one that can
// render values like sample without a %!verb error.
func checkTemplate(tpl string, sample any) error {
	verbs := strings.Count(tpl, "%") - 2*strings.Count(tpl, "%%")
	if verbs != 1 {
		return fmt.Errorf("template %q must contain exactly one verb, found %d", tpl, verbs)
	}
	if out := fmt.Sprintf(tpl, sample); strings.Contains(out, "%!") {
		return fmt.Errorf("template %q cannot render a %T: %s", tpl, sample, out)
	}
	return nil
}

// templateFor returns the configured template for outcome and the
// variant's built-in one.
func (v Variant) templateFor(outcome Outcome) (configured, builtin string) {
	base := RowCountVariant()
	if v.Kind == FirstRow {
		base = FirstRowVariant()
	}

	switch outcome {
	case OutcomeConnected:
		return v.Templates.Connected, base.Templates.Connected
	case OutcomeQueryFailure:
		return v.Templates.QueryFailed, base.Templates.QueryFailed
	default:
		return v.Templates.ConnectFailed, base.Templates.ConnectFailed
	}
}

// summarize turns the first row into the value placed in the Connected
// template. Any failure here counts as a query failure.
func (v Variant) summarize(row []any) (any, error) {
	if len(row) == 0 {
		return nil, errors.New("query returned no columns")
	}

	switch v.Kind {
	case RowCount:
		return toInt64(row[0])
	default:
		return display(row[0]), nil
	}
}

func toInt64(value any) (int64, error) {
	switch n := value.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, errors.New("data is null")
	default:
		return 0, fmt.Errorf("unable to read %T as a row count", value)
	}
}

// NullText stands in for a NULL first column.
const NullText = "NULL"

func display(value any) any {
	switch x := value.(type) {
	case []byte:
		return string(x)
	case nil:
		return NullText
	default:
		return x
	}
}
