package proto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protovet/internal/proto"
)

func TestParseBasicMessage(t *testing.T) {
	src := `
syntax = "proto3";
package shop;

// the account contract
message User {
  string email = 1;
  optional int32 age = 2;
  repeated string tags = 3;
}
`
	f, err := proto.Parse("user.proto", src)
	require.NoError(t, err)

	assert.Equal(t, proto.SyntaxProto3, f.Syntax)
	assert.Equal(t, "shop", f.Package)
	require.Len(t, f.Messages, 1)

	m := f.Messages[0]
	assert.Equal(t, "User", m.Name)
	require.Len(t, m.Fields, 3)

	assert.Equal(t, "email", m.Fields[0].Name)
	assert.Equal(t, proto.Singular, m.Fields[0].Cardinality)
	assert.Equal(t, proto.ScalarString, m.Fields[0].Type.Scalar)
	assert.Equal(t, 1, m.Fields[0].Number)

	assert.Equal(t, proto.Optional, m.Fields[1].Cardinality)
	assert.Equal(t, proto.ScalarInt32, m.Fields[1].Type.Scalar)

	assert.Equal(t, proto.Repeated, m.Fields[2].Cardinality)
	assert.Equal(t, 3, m.Fields[2].Number)
}

func TestParseProto2Required(t *testing.T) {
	src := `
syntax = "proto2";
message Order {
  required int64 id = 1;
  optional string note = 2;
}
`
	f, err := proto.Parse("order.proto", src)
	require.NoError(t, err)
	require.Len(t, f.Messages, 1)

	// required is exactly-one, same contract as an unmodified proto3 field
	assert.Equal(t, proto.Singular, f.Messages[0].Fields[0].Cardinality)
	assert.Equal(t, proto.Optional, f.Messages[0].Fields[1].Cardinality)
}

func TestParseNestedAndEnums(t *testing.T) {
	src := `
message Order {
  enum Status {
    PENDING = 0;
    SHIPPED = 1;
  }
  message Item {
    string sku = 1;
    int32 quantity = 2;
  }
  Status status = 1;
  Item first_item = 2;
  google.protobuf.Timestamp created_at = 3;
}
`
	f, err := proto.Parse("order.proto", src)
	require.NoError(t, err)
	m := f.Messages[0]

	require.Len(t, m.Enums, 1)
	assert.Equal(t, "Status", m.Enums[0].Name)
	assert.Equal(t, []proto.EnumValue{{Name: "PENDING", Number: 0}, {Name: "SHIPPED", Number: 1}}, m.Enums[0].Values)

	require.Len(t, m.Messages, 1)
	assert.Equal(t, "Item", m.Messages[0].Name)

	require.Len(t, m.Fields, 3)
	assert.Equal(t, "Status", m.Fields[0].Type.Ref)
	assert.Equal(t, "Item", m.Fields[1].Type.Ref)
	assert.Equal(t, proto.WellKnownTimestamp, m.Fields[2].Type.Ref)
}

func TestParseFieldOptionsAndComments(t *testing.T) {
	src := `
/* block
   comment */
message Event {
  optional int32 kind = 1 [default = 4, deprecated = true]; // trailing
  bytes payload = 2 [packed=true];
}
`
	f, err := proto.Parse("event.proto", src)
	require.NoError(t, err)
	m := f.Messages[0]

	assert.True(t, m.Fields[0].HasDefault)
	assert.True(t, m.Fields[0].Deprecated)
	assert.False(t, m.Fields[1].HasDefault)
	assert.Equal(t, proto.ScalarBytes, m.Fields[1].Type.Scalar)
}

func TestParseFloatOptionValues(t *testing.T) {
	src := `
message Product {
  float price = 1 [default = 1.5];
  double ratio = 2 [default = -2.5e3];
  int32 count = 3 [default = 10];
}
`
	f, err := proto.Parse("product.proto", src)
	require.NoError(t, err)
	m := f.Messages[0]

	require.Len(t, m.Fields, 3)
	for _, field := range m.Fields {
		assert.True(t, field.HasDefault, "field %s", field.Name)
	}
}

func TestParseReserved(t *testing.T) {
	src := `
message Legacy {
  reserved 2, 15 to 20;
  reserved "old_name";
  string name = 1;
}
`
	f, err := proto.Parse("legacy.proto", src)
	require.NoError(t, err)
	m := f.Messages[0]

	assert.Equal(t, []proto.ReservedRange{{From: 2, To: 2}, {From: 15, To: 20}}, m.ReservedNums)
	assert.Equal(t, []string{"old_name"}, m.ReservedNames)
}

func TestParseOneofFlattensToOptional(t *testing.T) {
	src := `
message Contact {
  oneof channel {
    string email = 1;
    string phone = 2;
  }
  string name = 3;
}
`
	f, err := proto.Parse("contact.proto", src)
	require.NoError(t, err)
	m := f.Messages[0]

	require.Len(t, m.Fields, 3)
	assert.Equal(t, proto.Optional, m.Fields[0].Cardinality)
	assert.Equal(t, proto.Optional, m.Fields[1].Cardinality)
	assert.Equal(t, proto.Singular, m.Fields[2].Cardinality)
}

func TestParseMapField(t *testing.T) {
	src := `
message Config {
  map<string, int64> limits = 1;
}
`
	f, err := proto.Parse("config.proto", src)
	require.NoError(t, err)

	typ := f.Messages[0].Fields[0].Type
	assert.Equal(t, proto.KindMap, typ.Kind)
	assert.Equal(t, proto.ScalarString, typ.MapKey.Scalar)
	assert.Equal(t, proto.ScalarInt64, typ.MapValue.Scalar)
}

func TestParseErrorPosition(t *testing.T) {
	src := "message User {\n  string email 1;\n}\n"
	_, err := proto.Parse("user.proto", src)
	require.Error(t, err)

	var pe *proto.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "user.proto", pe.File)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 16, pe.Col)
	assert.Contains(t, pe.Error(), "expected '='")
}

func TestParseErrorUnterminatedBlockComment(t *testing.T) {
	_, err := proto.Parse("x.proto", "/* never closed")
	var pe *proto.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "closing */")
}

func TestParseDuplicateFieldName(t *testing.T) {
	src := `
message User {
  string email = 1;
  string email = 2;
}
`
	_, err := proto.Parse("user.proto", src)
	var pe *proto.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "unique field name")
}

func TestParseDuplicateFieldNumberAllowed(t *testing.T) {
	// number collisions are a reconciliation finding, not a parse failure
	src := `
message User {
  string email = 1;
  string backup_email = 1;
}
`
	f, err := proto.Parse("user.proto", src)
	require.NoError(t, err)
	assert.Len(t, f.Messages[0].Fields, 2)
}

func TestParseDuplicateEnumValue(t *testing.T) {
	src := `
enum Status {
  A = 0;
  B = 0;
}
`
	_, err := proto.Parse("status.proto", src)
	var pe *proto.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "unique value in enum")
}

func TestMergeDuplicateMessage(t *testing.T) {
	a, err := proto.Parse("a.proto", `message Order { int32 id = 1; }`)
	require.NoError(t, err)
	b, err := proto.Parse("b.proto", `message Order { int32 id = 1; }`)
	require.NoError(t, err)

	_, err = proto.Merge(a, b)
	var dup *proto.DuplicateMessageError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Order", dup.Name)
	assert.Equal(t, "a.proto", dup.FirstFile)
	assert.Equal(t, "b.proto", dup.SecondFile)
}

func TestMergeResolvesCrossFileReferences(t *testing.T) {
	a, err := proto.Parse("a.proto", `message Order { Customer buyer = 1; Status status = 2; }`)
	require.NoError(t, err)
	b, err := proto.Parse("b.proto", `
message Customer { string name = 1; }
enum Status { OPEN = 0; }
`)
	require.NoError(t, err)

	s, err := proto.Merge(a, b)
	require.NoError(t, err)

	order := s.Message("Order")
	require.NotNil(t, order)
	assert.Equal(t, proto.KindMessage, order.Fields[0].Type.Kind)
	// enum references are re-tagged once the registry knows the declaration
	assert.Equal(t, proto.KindEnum, order.Fields[1].Type.Kind)
}

func TestMergeUnresolvedType(t *testing.T) {
	a, err := proto.Parse("a.proto", `message Order { Customer buyer = 1; }`)
	require.NoError(t, err)

	_, err = proto.Merge(a)
	var ue *proto.UnresolvedTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Order", ue.Message)
	assert.Equal(t, "buyer", ue.Field)
	assert.Equal(t, "Customer", ue.Ref)
}

func TestMergeResolvesNestedReferences(t *testing.T) {
	a, err := proto.Parse("a.proto", `
message Order {
  message Item { string sku = 1; }
  Item item = 1;
  Order.Item qualified = 2;
}
`)
	require.NoError(t, err)

	s, err := proto.Merge(a)
	require.NoError(t, err)
	assert.NotNil(t, s.LookupMessage("Item"))
	assert.NotNil(t, s.LookupMessage("Order.Item"))
}
