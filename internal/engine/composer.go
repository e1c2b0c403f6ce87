package engine

import (
  "fmt"
  "sort"
  "strings"
  "github.com/Qubdi/Tobias/internal/types"
)

// cteNamePrefix derives each sub-computation's name from the variable id
// alone, so composing the same variable set always yields the same SQL and
// names can never collide (variable ids are engine-assigned integers).
const cteNamePrefix = "var_"

// Fragment is one variable's calculation, normalized and ready to embed.
type Fragment struct {
  VariableID int64
  VersionID  int64
  SQL        string
}

// BatchUnit is the composed executable for one calculation request: one CTE
// per fragment, each yielding exactly one (application_id, variable_id, value)
// row, unioned into a single result set. The application id is always a bound
// parameter (@app_id), never interpolated. Fragment text is trusted
// application-owner-authored SQL; the composer only screens it for obvious
// non-reads and embeds it verbatim otherwise.
type BatchUnit struct {
  ApplicationID string
  Fragments     []Fragment
}

// Composer turns resolved versions into a BatchUnit. Pure in-memory; never
// touches the store. Fragments that cannot be embedded safely are returned as
// per-variable failures and the remaining fragments still compose.
type Composer struct{}

func NewComposer() *Composer {
  return &Composer{}
}

// statement keywords the composer refuses to embed. Fragments are supposed to
// be pure reads; anything that would statically look like a write is rejected
// up front. A read that hides a write (e.g. behind a function) is an accepted
// trust boundary of the authoring workflow.
var writeKeywords = map[string]bool{
  "INSERT":   true,
  "UPDATE":   true,
  "DELETE":   true,
  "DROP":     true,
  "ALTER":    true,
  "CREATE":   true,
  "TRUNCATE": true,
  "MERGE":    true,
  "GRANT":    true,
  "REVOKE":   true,
}

func (c *Composer) Compose(applicationID string, resolved map[int64]*types.VariableVersion) (*BatchUnit, []FragmentFailure) {
  unit := &BatchUnit{ApplicationID: applicationID}
  var failures []FragmentFailure

  ids := make([]int64, 0, len(resolved))
  for id := range resolved {
    ids = append(ids, id)
  }
  sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

  for _, id := range ids {
    version := resolved[id]
    fragment, reason := normalizeFragment(version.SQLScript)
    if reason != "" {
      failures = append(failures, composeFailure(id, reason))
      continue
    }
    unit.Fragments = append(unit.Fragments, Fragment{
      VariableID: id,
      VersionID:  version.ID,
      SQL:        fragment,
    })
  }
  return unit, failures
}

// normalizeFragment trims whitespace and a trailing statement terminator
// (authors tend to paste full statements), then screens the result. Returns
// the embeddable fragment, or a non-empty reason when it must be rejected.
func normalizeFragment(raw string) (string, string) {
  fragment := strings.TrimSpace(raw)
  fragment = strings.TrimRight(fragment, ";")
  fragment = strings.TrimSpace(fragment)

  if fragment == "" {
    return "", "fragment is empty after normalization"
  }
  if containsBareSemicolon(fragment) {
    return "", "fragment must be a single statement"
  }
  if word := leadingKeyword(fragment); writeKeywords[word] {
    return "", fmt.Sprintf("fragment must be a pure read, found %s", word)
  }
  return fragment, ""
}

// containsBareSemicolon reports whether the fragment holds a statement
// separator outside single-quoted literals. A semicolon inside a literal
// ('a;b') is data, not a separator. SQL escapes a quote inside a literal by
// doubling it, which the toggle handles: the second quote re-enters the
// literal.
func containsBareSemicolon(fragment string) bool {
  inLiteral := false
  for _, r := range fragment {
    switch r {
    case '\'':
      inLiteral = !inLiteral
    case ';':
      if !inLiteral {
        return true
      }
    }
  }
  return false
}

func leadingKeyword(fragment string) string {
  trimmed := strings.TrimLeft(fragment, "( \t\r\n")
  fields := strings.Fields(trimmed)
  if len(fields) == 0 {
    return ""
  }
  return strings.ToUpper(fields[0])
}

// BatchSQL renders the whole-batch statement: every fragment as a CTE, then
// one UNION ALL select over all of them. Each fragment's value is cast to
// TEXT so a heterogeneous batch still produces a uniform result shape.
func (u *BatchUnit) BatchSQL() string {
  ctes := make([]string, 0, len(u.Fragments))
  selects := make([]string, 0, len(u.Fragments))
  for _, f := range u.Fragments {
    name := cteName(f.VariableID)
    ctes = append(ctes, cteSQL(name, f))
    selects = append(selects, fmt.Sprintf("SELECT application_id, variable_id, value FROM %s", name))
  }
  return "WITH " + strings.Join(ctes, ",\n") + "\n" + strings.Join(selects, "\nUNION ALL\n")
}

// FragmentSQL renders the single-fragment statement used by the fallback
// path, shaped exactly like one slice of the batch.
func (u *BatchUnit) FragmentSQL(f Fragment) string {
  name := cteName(f.VariableID)
  return "WITH " + cteSQL(name, f) + fmt.Sprintf("\nSELECT application_id, variable_id, value FROM %s", name)
}

func cteName(variableID int64) string {
  return fmt.Sprintf("%s%d", cteNamePrefix, variableID)
}

func cteSQL(name string, f Fragment) string {
  return fmt.Sprintf(`%s AS (
  SELECT
    @app_id AS application_id,
    %d AS variable_id,
    CAST((
      %s
    ) AS TEXT) AS value
)`, name, f.VariableID, f.SQL)
}
