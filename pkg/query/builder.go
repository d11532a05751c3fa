package query

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

const tiebreakField = "id"

// SortField represents a single column in an ORDER BY clause.
// Field is the view name mapped via ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort string into a SortField slice.
// Fields prefixed with "-" are descending. Example: "title,-created_at".
// Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition is a WHERE fragment. Each "?" in clause binds the next arg.
type condition struct {
	clause string
	args   []any
}

// Builder constructs SELECT statements over a ProjectionMap. Conditions are
// joined with AND and numbered $1..$n when the statement is rendered, so
// the same builder can produce both a page query and its count.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

type statement struct {
	columns string
	ordered bool
	limit   int
	paged   bool
	offset  int
}

// Build returns a SELECT query with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	return b.render(statement{columns: b.projection.Columns(), ordered: true})
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	return b.render(statement{columns: "COUNT(*)"})
}

// BuildPage returns a SELECT query for the 1-based page of pageSize rows.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	return b.render(statement{
		columns: b.projection.Columns(),
		ordered: true,
		limit:   pageSize,
		paged:   true,
		offset:  max(page-1, 0) * pageSize,
	})
}

// BuildLimit returns an ordered SELECT query returning at most limit rows.
func (b *Builder) BuildLimit(limit int) (string, []any) {
	return b.render(statement{columns: b.projection.Columns(), ordered: true, limit: limit})
}

// BuildSingle returns a SELECT query for a single record by key.
// Conditions already added to b are not applied.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	single := &Builder{projection: b.projection}
	single.where(b.projection.Column(idField)+" = ?", id)
	return single.render(statement{columns: b.projection.Columns()})
}

// BuildSingleOrNull returns a SELECT query limited to one row with the current conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	return b.render(statement{columns: b.projection.Columns(), limit: 1})
}

// OrderByFields sets the sort order, overriding default sort fields.
// Fields that are not mapped by the projection are ignored when the query is built.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereContains adds a case-insensitive substring match. LIKE wildcards in
// value match literally. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(like(b.projection.Column(field)), containsPattern(*value))
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = ?", value)
}

// WhereIn adds an IN condition for multiple values. No-op for empty slices.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return b.where(fmt.Sprintf("%s IN (%s)", b.projection.Column(field), marks), values...)
}

// WhereNullable adds an equality or IS NULL condition depending on whether value is nil.
func (b *Builder) WhereNullable(field string, value any) *Builder {
	col := b.projection.Column(field)
	if isNil(value) {
		return b.where(col + " IS NULL")
	}
	return b.where(col+" = ?", value)
}

// WhereRaw adds a literal condition. Each "?" in clause binds the next arg.
func (b *Builder) WhereRaw(clause string, args ...any) *Builder {
	return b.where(clause, args...)
}

// WhereSearch adds a case-insensitive substring match that succeeds when any
// of fields contains search. No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := containsPattern(*search)
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = like(b.projection.Column(field))
		args[i] = pattern
	}

	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) render(s statement) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(s.columns)
	sb.WriteString(" FROM ")
	sb.WriteString(b.projection.From())

	for i, c := range b.conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = bind(&sb, c, args)
	}

	if s.ordered {
		sb.WriteString(b.orderBy())
	}
	if s.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.limit)
	}
	if s.paged {
		fmt.Fprintf(&sb, " OFFSET %d", s.offset)
	}

	return sb.String(), args
}

// bind writes c.clause to sb, replacing each "?" with the positional
// parameter of the arg it binds, and returns args extended with c.args.
func bind(sb *strings.Builder, c condition, args []any) []any {
	rest := c.clause
	for _, arg := range c.args {
		before, after, ok := strings.Cut(rest, "?")
		if !ok {
			break
		}
		args = append(args, arg)
		sb.WriteString(before)
		fmt.Fprintf(sb, "$%d", len(args))
		rest = after
	}
	sb.WriteString(rest)
	return args
}

func (b *Builder) orderBy() string {
	fields := make([]SortField, 0, len(b.sort))
	for _, f := range b.sort {
		if b.projection.Has(f.Field) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	// A mapped id is the final key so LIMIT/OFFSET pages over tied rows are stable.
	if b.projection.Has(tiebreakField) && !slices.ContainsFunc(fields, func(f SortField) bool {
		return f.Field == tiebreakField
	}) {
		fields = append(slices.Clone(fields), SortField{
			Field:      tiebreakField,
			Descending: fields[len(fields)-1].Descending,
		})
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func like(col string) string {
	return "LOWER(" + col + ") LIKE LOWER(?) ESCAPE '\\'"
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
