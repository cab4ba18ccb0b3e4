package features

// Value is an optional scalar: a number, a string code, or missing. The zero
// value is missing, which is how absent weather observations travel through
// the pipeline without being mistaken for zeros.
type Value struct {
	num  float64
	str  string
	kind valueKind
}

type valueKind int

const (
	kindMissing valueKind = iota
	kindNumber
	kindCode
)

// None is the missing value.
var None = Value{}

// Number wraps a numeric scalar.
func Number(v float64) Value {
	return Value{num: v, kind: kindNumber}
}

// Int wraps an integer scalar as a number.
func Int(v int) Value {
	return Number(float64(v))
}

// Code wraps a categorical identity code (e.g. an IATA code).
func Code(s string) Value {
	return Value{str: s, kind: kindCode}
}

// Float returns the numeric value, reporting whether one is present.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// Text returns the string code, reporting whether one is present.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == kindCode
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool {
	return v.kind == kindMissing
}

// Row is an ordered mapping from feature name to optional scalar. Both the
// training and serving paths emit Rows, so the two surfaces cannot drift in
// value representation.
type Row struct {
	names  []string
	values map[string]Value
}

// NewRow creates an empty Row.
func NewRow() *Row {
	return &Row{values: make(map[string]Value)}
}

// Set stores a value under name, preserving first-set order.
func (r *Row) Set(name string, v Value) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name, or a missing value.
func (r *Row) Get(name string) Value {
	return r.values[name]
}

// Has reports whether name has been set on the row.
func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns the feature names in insertion order.
func (r *Row) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of named values on the row.
func (r *Row) Len() int {
	return len(r.names)
}
