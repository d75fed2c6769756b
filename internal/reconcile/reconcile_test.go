package reconcile_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protovet/internal/dialect"
	"protovet/internal/naming"
	"protovet/internal/proto"
	"protovet/internal/reconcile"
	"protovet/internal/relation"
)

func mustSchema(t *testing.T, files map[string]string) *proto.Schema {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed := make([]*proto.File, 0, len(names))
	for _, name := range names {
		f, err := proto.Parse(name, files[name])
		require.NoError(t, err)
		parsed = append(parsed, f)
	}
	s, err := proto.Merge(parsed...)
	require.NoError(t, err)
	return s
}

func col(name string, typ dialect.ColumnType, nullable bool) *relation.Column {
	return &relation.Column{Name: name, Type: typ, Nullable: nullable}
}

func table(name string, cols ...*relation.Column) *relation.Table {
	return &relation.Table{Name: name, Columns: cols}
}

func model(tables ...*relation.Table) *relation.Model {
	return &relation.Model{Schema: "public", Tables: tables}
}

var defaultResolver = naming.NewResolver(naming.SnakePlural, nil)

func reconcileDefault(s *proto.Schema, m *relation.Model) *reconcile.Report {
	return reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{})
}

const userProto = `
message User {
  string email = 1;
  optional int32 age = 2;
}
`

func TestMatchingSchemaProducesEmptyReport(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), false),
		col("age", dialect.Integer(32), true),
	))

	report := reconcileDefault(s, m)
	assert.Empty(t, report.Issues)
	assert.Zero(t, report.Errors)
	assert.Zero(t, report.Warnings)
	assert.False(t, report.HasErrors())
}

func TestMissingColumn(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), false),
	))

	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)

	issue := report.Issues[0]
	assert.Equal(t, reconcile.MissingColumn, issue.Kind)
	assert.Equal(t, reconcile.Error, issue.Severity)
	assert.Equal(t, "User", issue.Message)
	assert.Equal(t, "age", issue.Field)
	assert.Equal(t, 1, report.Errors)
}

func TestSingularFieldOnNullableColumn(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), true),
		col("age", dialect.Integer(32), true),
	))

	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.NullabilityMismatch, report.Issues[0].Kind)
	assert.Equal(t, reconcile.Warning, report.Issues[0].Severity)
	assert.False(t, report.HasErrors())
}

func TestRepeatedFieldOnScalarColumn(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": `
message User {
  repeated string tags = 3;
}
`})
	m := model(table("users", col("tags", dialect.Simple(dialect.KindText), false)))

	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.CardinalityMismatch, report.Issues[0].Kind)
	assert.Equal(t, reconcile.Error, report.Issues[0].Severity)
}

func TestMissingTableSkipsFieldChecks(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model()

	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.MissingTable, report.Issues[0].Kind)
	assert.Equal(t, "users", report.Issues[0].Table)
	assert.Contains(t, report.Issues[0].Detail, "users, user")
}

func TestDuplicateFieldNumber(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": `
message User {
  string email = 1;
  string backup_email = 1;
}
`})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), false),
		col("backup_email", dialect.Simple(dialect.KindText), false),
	))

	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.DuplicateFieldNumber, report.Issues[0].Kind)
	assert.Equal(t, "backup_email", report.Issues[0].Field)
	assert.Contains(t, report.Issues[0].Detail, "already used by field email")
}

func TestExtraColumnsReportedWhenEnabled(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	createdAt := col("created_at", dialect.Simple(dialect.KindTimestamp), false)
	createdAt.HasDefault = true
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), false),
		col("age", dialect.Integer(32), true),
		col("legacy_flag", dialect.Simple(dialect.KindBoolean), true),
		createdAt,
	))

	report := reconcileDefault(s, m)
	assert.Empty(t, report.Issues, "extra columns are opt-in")

	report = reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{ReportExtraColumns: true})
	require.Len(t, report.Issues, 2)
	// sorted by column name, independent of catalog row order
	assert.Equal(t, "created_at", report.Issues[0].Column)
	assert.Equal(t, "legacy_flag", report.Issues[1].Column)
	for _, issue := range report.Issues {
		assert.Equal(t, reconcile.ExtraColumn, issue.Kind)
		assert.Equal(t, reconcile.Warning, issue.Severity)
	}
	assert.Contains(t, report.Issues[0].Detail, "default=true")
	assert.Contains(t, report.Issues[1].Detail, "default=false")
}

func TestCaseInsensitiveMatchingByDefault(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model(table("USERS",
		col("EMAIL", dialect.Simple(dialect.KindText), false),
		col("AGE", dialect.Integer(32), true),
	))

	assert.Empty(t, reconcileDefault(s, m).Issues)

	strict := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{CaseSensitive: true})
	require.Len(t, strict.Issues, 1)
	assert.Equal(t, reconcile.MissingTable, strict.Issues[0].Kind)
}

func TestEnumAndTimestampFields(t *testing.T) {
	s := mustSchema(t, map[string]string{"order.proto": `
message Order {
  enum Status { OPEN = 0; CLOSED = 1; }
  Status status = 1;
  google.protobuf.Timestamp created_at = 2;
}
`})
	m := model(table("orders",
		col("status", dialect.Simple(dialect.KindText), false),
		col("created_at", dialect.Simple(dialect.KindTimestamp), false),
	))

	assert.Empty(t, reconcileDefault(s, m).Issues)
}

func TestForeignKeyEmbedding(t *testing.T) {
	files := map[string]string{"order.proto": `
message Order {
  int64 id = 1;
  Customer customer = 2;
}
message Customer {
  int64 id = 1;
  string name = 2;
}
`}

	s := mustSchema(t, files)
	m := model(
		table("orders",
			col("id", dialect.Integer(64), false),
			col("customer_id", dialect.Integer(64), false),
		),
		table("customers",
			col("id", dialect.Integer(64), false),
			col("name", dialect.Simple(dialect.KindText), false),
		),
	)

	assert.Empty(t, reconcileDefault(s, m).Issues)

	// a text reference column is not an acceptable key
	m.Tables[0].Columns[1].Type = dialect.Simple(dialect.KindText)
	report := reconcileDefault(s, m)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.TypeMismatch, report.Issues[0].Kind)
	assert.Contains(t, report.Issues[0].Detail, "integer or uuid")
}

func TestForeignKeyEmbeddingReconcilesNestedMessage(t *testing.T) {
	s := mustSchema(t, map[string]string{"order.proto": `
message Order {
  message LineItem {
    string sku = 1;
  }
  int64 id = 1;
  LineItem item = 2;
}
`})
	m := model(table("orders",
		col("id", dialect.Integer(64), false),
		col("item_id", dialect.Integer(64), false),
	))

	report := reconcileDefault(s, m)
	// the nested message is reconciled against its own table after the
	// top-level pass
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.MissingTable, report.Issues[0].Kind)
	assert.Equal(t, "LineItem", report.Issues[0].Message)
}

func TestInlinePrefixedEmbedding(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": `
message User {
  string email = 1;
  optional Address address = 2;
}
message Address {
  string street = 1;
  string city = 2;
}
`})
	m := model(
		table("users",
			col("email", dialect.Simple(dialect.KindText), false),
			col("address_street", dialect.Simple(dialect.KindText), true),
			col("address_city", dialect.Simple(dialect.KindText), true),
		),
		table("addresses",
			col("street", dialect.Simple(dialect.KindText), false),
			col("city", dialect.Simple(dialect.KindText), false),
		),
	)

	report := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{
		EmbeddingPolicy: reconcile.InlinePrefixed,
	})
	assert.Empty(t, report.Issues)

	// dropping one prefixed column surfaces as a missing column
	m.Tables[0].Columns = m.Tables[0].Columns[:2]
	report = reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{
		EmbeddingPolicy: reconcile.InlinePrefixed,
	})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.MissingColumn, report.Issues[0].Kind)
	assert.Equal(t, "address_city", report.Issues[0].Column)
}

// a self-referential message must terminate with a single issue instead of
// recursing through ever-growing prefixes
func TestInlinePrefixedSelfReference(t *testing.T) {
	s := mustSchema(t, map[string]string{"node.proto": `
message Node {
  string label = 1;
  optional Node parent = 2;
}
`})
	m := model(table("nodes",
		col("label", dialect.Simple(dialect.KindText), false),
		col("parent_label", dialect.Simple(dialect.KindText), true),
	))

	report := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{
		EmbeddingPolicy: reconcile.InlinePrefixed,
	})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.TypeMismatch, report.Issues[0].Kind)
	assert.Contains(t, report.Issues[0].Detail, "recursive reference to Node")
}

func TestInlinePrefixedMutualRecursion(t *testing.T) {
	s := mustSchema(t, map[string]string{"org.proto": `
message Employee {
  string name = 1;
  optional Team team = 2;
}
message Team {
  string title = 1;
  optional Employee lead = 2;
}
`})
	m := model(
		table("employees",
			col("name", dialect.Simple(dialect.KindText), false),
			col("team_title", dialect.Simple(dialect.KindText), true),
		),
		table("teams",
			col("title", dialect.Simple(dialect.KindText), false),
			col("lead_name", dialect.Simple(dialect.KindText), true),
		),
	)

	report := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{
		EmbeddingPolicy: reconcile.InlinePrefixed,
	})
	// each side stops where the cycle closes: Employee -> Team -> Employee
	// and Team -> Employee -> Team
	require.Len(t, report.Issues, 2)
	assert.Contains(t, report.Issues[0].Detail, "recursive reference to Employee")
	assert.Contains(t, report.Issues[1].Detail, "recursive reference to Team")
}

// field numbers are validated for every message in the schema, including
// nested messages only reachable through inlining
func TestDuplicateFieldNumberInInlinedNestedMessage(t *testing.T) {
	s := mustSchema(t, map[string]string{"order.proto": `
message Order {
  message Meta {
    string source = 1;
    string origin = 1;
  }
  Meta meta = 1;
}
`})
	m := model(table("orders",
		col("meta_source", dialect.Simple(dialect.KindText), false),
		col("meta_origin", dialect.Simple(dialect.KindText), false),
	))

	report := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{
		EmbeddingPolicy: reconcile.InlinePrefixed,
	})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, reconcile.DuplicateFieldNumber, report.Issues[0].Kind)
	assert.Equal(t, "Meta", report.Issues[0].Message)
	assert.Equal(t, "origin", report.Issues[0].Field)
}

func TestRepeatedMessageFieldIsRejected(t *testing.T) {
	s := mustSchema(t, map[string]string{"order.proto": `
message Order {
  repeated Item items = 1;
}
message Item {
  string sku = 1;
}
`})
	m := model(
		table("orders", col("items", dialect.Array(dialect.Simple(dialect.KindText)), false)),
		table("items", col("sku", dialect.Simple(dialect.KindText), false)),
	)

	report := reconcileDefault(s, m)
	require.NotEmpty(t, report.Issues)
	assert.Equal(t, reconcile.TypeMismatch, report.Issues[0].Kind)
	assert.Contains(t, report.Issues[0].Detail, "repeated message field")
}

// adding the column an issue complained about removes exactly that issue
func TestMonotonicity(t *testing.T) {
	s := mustSchema(t, map[string]string{"user.proto": userProto})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), false),
	))

	before := reconcileDefault(s, m)
	require.Len(t, before.Issues, 1)
	require.Equal(t, reconcile.MissingColumn, before.Issues[0].Kind)

	m.Tables[0].Columns = append(m.Tables[0].Columns, col("age", dialect.Integer(32), true))
	after := reconcileDefault(s, m)
	assert.Empty(t, after.Issues)
}

func TestSeverityPartitionAndSummary(t *testing.T) {
	s := mustSchema(t, map[string]string{"shop.proto": `
message User {
  string email = 1;
  optional int32 age = 2;
  repeated string tags = 3;
}
message Order {
  int64 id = 1;
}
`})
	m := model(table("users",
		col("email", dialect.Simple(dialect.KindText), true),
		col("tags", dialect.Simple(dialect.KindText), false),
		col("orphan", dialect.Simple(dialect.KindText), true),
	))

	report := reconcile.Reconcile(s, m, defaultResolver, reconcile.Options{ReportExtraColumns: true})

	errors, warnings := 0, 0
	for _, issue := range report.Issues {
		assert.Equal(t, issue.Kind.Severity(), issue.Severity)
		if issue.Severity == reconcile.Error {
			errors++
		} else {
			warnings++
		}
	}
	assert.Equal(t, errors, report.Errors)
	assert.Equal(t, warnings, report.Warnings)
	// nullable email, missing age, non-array tags, extra orphan, missing orders
	assert.Equal(t, 3, report.Errors)
	assert.Equal(t, 2, report.Warnings)
}

// identical inputs produce byte-identical reports regardless of relation
// row order
func TestDeterminismUnderRowOrder(t *testing.T) {
	s := mustSchema(t, map[string]string{"shop.proto": `
message User {
  string email = 1;
  optional int32 age = 2;
}
message Order {
  int64 id = 1;
  string status = 2;
}
`})

	build := func(reversed bool) *relation.Model {
		users := table("users",
			col("email", dialect.Simple(dialect.KindText), true),
			col("extra_a", dialect.Simple(dialect.KindText), true),
			col("extra_b", dialect.Simple(dialect.KindText), true),
		)
		orders := table("orders",
			col("id", dialect.Integer(64), false),
		)
		if reversed {
			for i, j := 0, len(users.Columns)-1; i < j; i, j = i+1, j-1 {
				users.Columns[i], users.Columns[j] = users.Columns[j], users.Columns[i]
			}
			return model(orders, users)
		}
		return model(users, orders)
	}

	opts := reconcile.Options{ReportExtraColumns: true}
	a, err := json.Marshal(reconcile.Reconcile(s, build(false), defaultResolver, opts))
	require.NoError(t, err)
	b, err := json.Marshal(reconcile.Reconcile(s, build(true), defaultResolver, opts))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}
