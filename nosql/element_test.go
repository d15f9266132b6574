package nosql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql"
)

func Test_El_BuildsNamedTuple(t *testing.T) {
	element := nosql.El("name", "Ada")

	assert.Equal(t, "name", element.Name())
	assert.Equal(t, "Ada", element.Get())
}

func Test_NewElement_ValidatesName(t *testing.T) {
	tests := []struct {
		name        string
		elementName string
		expectedErr error
	}{
		{
			name:        "accepts_regular_name",
			elementName: "age",
			expectedErr: nil,
		},
		{
			name:        "rejects_empty_name",
			elementName: "",
			expectedErr: nosql.ErrEmptyElementName,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			element, err := nosql.NewElement(tc.elementName, 1)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.elementName, element.Name())
		})
	}
}

func Test_NewDocument_And_NewColumn_AreElementFactories(t *testing.T) {
	document, err := nosql.NewDocument("title", "Dune")
	require.NoError(t, err)

	column, err := nosql.NewColumn("title", "Dune")
	require.NoError(t, err)

	// Document and Column are aliases, the factories must agree
	assert.Equal(t, document, column)

	_, err = nosql.NewDocument("", nil)
	assert.ErrorIs(t, err, nosql.ErrEmptyElementName)

	_, err = nosql.NewColumn("", nil)
	assert.ErrorIs(t, err, nosql.ErrEmptyElementName)
}

func Test_Element_WithValue_DerivesNewElement(t *testing.T) {
	original := nosql.El("age", 36)

	derived := original.WithValue(37)

	assert.Equal(t, 36, original.Get(), "the original element must stay untouched")
	assert.Equal(t, 37, derived.Get())
	assert.Equal(t, "age", derived.Name())
}

func Test_Element_ValueBoxesTheDatum(t *testing.T) {
	element := nosql.El("score", "99")

	converted, err := nosql.As[int](element)

	require.NoError(t, err)
	assert.Equal(t, 99, converted)
}

func Test_Element_NilDatumIsValid(t *testing.T) {
	element := nosql.El("deleted_at", nil)

	assert.True(t, element.Value().IsNil())
	assert.Nil(t, element.Get())
}
