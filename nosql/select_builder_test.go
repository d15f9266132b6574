package nosql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql"
)

//nolint:funlen
func Test_SelectBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (nosql.Query, error)
		validate func(t *testing.T, query nosql.Query)
	}{
		{
			name: "collection_only",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				assert.Equal(t, "people", query.Collection())
				assert.Empty(t, query.Fields())
				assert.Empty(t, query.Sorts())
				assert.Zero(t, query.Limit())
				assert.Zero(t, query.Skip())

				_, hasCondition := query.Condition()
				assert.False(t, hasCondition)
			},
		},
		{
			name: "field_projection",
			build: func() (nosql.Query, error) {
				return nosql.Select("name", "age").From("people").Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				assert.Equal(t, []string{"name", "age"}, query.Fields())
			},
		},
		{
			name: "single_equals_condition",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Where("name").Eq("Ada").Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpEquals, condition.Operator())
				assert.Equal(t, "name", condition.Element().Name())
				assert.Equal(t, "Ada", condition.Element().Get())
			},
		},
		{
			name: "and_chain_flattens",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("age").Gte(21).
					And("age").Lt(65).
					And("active").Eq(true).
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpAnd, condition.Operator())
				assert.Len(t, condition.Conditions(), 3)
			},
		},
		{
			name: "and_then_or_nests_left",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("age").Gte(21).
					And("city").Eq("Lisbon").
					Or("vip").Eq(true).
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpOr, condition.Operator())

				children := condition.Conditions()
				require.Len(t, children, 2)
				assert.Equal(t, nosql.OpAnd, children[0].Operator())
				assert.Len(t, children[0].Conditions(), 2)
				assert.Equal(t, "vip", children[1].Element().Name())
			},
		},
		{
			name: "not_wraps_the_following_comparator",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("city").Not().Eq("Lisbon").
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpNot, condition.Operator())

				inner := condition.Conditions()
				require.Len(t, inner, 1)
				assert.Equal(t, nosql.OpEquals, inner[0].Operator())
				assert.Equal(t, "city", inner[0].Element().Name())
			},
		},
		{
			name: "not_applies_only_to_its_own_comparator",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("city").Not().Eq("Lisbon").
					And("age").Gte(21).
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpAnd, condition.Operator())

				children := condition.Conditions()
				require.Len(t, children, 2)
				assert.Equal(t, nosql.OpNot, children[0].Operator())
				assert.Equal(t, nosql.OpGreaterEqualsThan, children[1].Operator())
			},
		},
		{
			name: "in_condition_captures_all_data",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("city").In("Lisbon", "Porto", "Faro").
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpIn, condition.Operator())
				assert.Equal(t, []any{"Lisbon", "Porto", "Faro"}, condition.Element().Get())
			},
		},
		{
			name: "like_condition",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("name").Like("Ada%").
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpLike, condition.Operator())
				assert.Equal(t, "Ada%", condition.Element().Get())
			},
		},
		{
			name: "between_condition_packs_the_range",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					Where("age").Between(21, 65).
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpBetween, condition.Operator())
				assert.Equal(t, []any{21, 65}, condition.Element().Get())
			},
		},
		{
			name: "multiple_sorts_keep_precedence_order",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").
					OrderBy("name").Asc().
					OrderBy("age").Desc().
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				sorts := query.Sorts()
				require.Len(t, sorts, 2)
				assert.Equal(t, "name", sorts[0].Field())
				assert.Equal(t, nosql.SortAsc, sorts[0].Direction())
				assert.Equal(t, "age", sorts[1].Field())
				assert.Equal(t, nosql.SortDesc, sorts[1].Direction())
			},
		},
		{
			name: "limit_and_skip",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Limit(10).Skip(20).Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				assert.Equal(t, uint64(10), query.Limit())
				assert.Equal(t, uint64(20), query.Skip())
			},
		},
		{
			name: "everything_combined",
			build: func() (nosql.Query, error) {
				return nosql.Select("name", "age").From("people").
					Where("age").Gte(21).
					And("name").Like("A%").
					OrderBy("name").Asc().
					Limit(50).
					Skip(100).
					Build()
			},
			validate: func(t *testing.T, query nosql.Query) {
				assert.Equal(t, "people", query.Collection())
				assert.Equal(t, []string{"name", "age"}, query.Fields())

				condition, hasCondition := query.Condition()
				require.True(t, hasCondition)
				assert.Equal(t, nosql.OpAnd, condition.Operator())

				require.Len(t, query.Sorts(), 1)
				assert.Equal(t, uint64(50), query.Limit())
				assert.Equal(t, uint64(100), query.Skip())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, err := tc.build()

			require.NoError(t, err)
			tc.validate(t, query)
		})
	}
}

func Test_SelectBuilder_InputSanitization(t *testing.T) {
	tests := []struct {
		name        string
		build       func() (nosql.Query, error)
		expectedErr error
	}{
		{
			name: "empty_collection_name",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("").Build()
			},
			expectedErr: nosql.ErrEmptyCollectionName,
		},
		{
			name: "empty_projection_field",
			build: func() (nosql.Query, error) {
				return nosql.Select("name", "").From("people").Build()
			},
			expectedErr: nosql.ErrEmptyFieldName,
		},
		{
			name: "empty_where_field",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Where("").Eq(1).Build()
			},
			expectedErr: nosql.ErrEmptyFieldName,
		},
		{
			name: "empty_and_field",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Where("age").Gte(21).And("").Eq(1).Build()
			},
			expectedErr: nosql.ErrEmptyFieldName,
		},
		{
			name: "empty_or_field",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").Where("age").Gte(21).Or("").Eq(1).Build()
			},
			expectedErr: nosql.ErrEmptyFieldName,
		},
		{
			name: "empty_order_by_field",
			build: func() (nosql.Query, error) {
				return nosql.Select().From("people").OrderBy("").Asc().Build()
			},
			expectedErr: nosql.ErrEmptyFieldName,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build()

			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_SelectBuilder_BranchingIsImmutable(t *testing.T) {
	// setup
	base := nosql.Select().From("people").OrderBy("name").Asc()

	// act
	first, err := base.OrderBy("age").Asc().Build()
	require.NoError(t, err)

	second, err := base.OrderBy("city").Desc().Build()
	require.NoError(t, err)

	// assert
	require.Len(t, first.Sorts(), 2)
	assert.Equal(t, "age", first.Sorts()[1].Field())

	require.Len(t, second.Sorts(), 2)
	assert.Equal(t, "city", second.Sorts()[1].Field())
	assert.Equal(t, nosql.SortDesc, second.Sorts()[1].Direction())
}

func Test_SelectBuilder_ConditionBranchingIsImmutable(t *testing.T) {
	base := nosql.Select().From("people").Where("age").Gte(21)

	first, err := base.And("city").Eq("Lisbon").Build()
	require.NoError(t, err)

	second, err := base.And("city").Eq("Porto").Build()
	require.NoError(t, err)

	firstCondition, _ := first.Condition()
	secondCondition, _ := second.Condition()

	assert.Equal(t, "Lisbon", firstCondition.Conditions()[1].Element().Get())
	assert.Equal(t, "Porto", secondCondition.Conditions()[1].Element().Get())
}

func Test_SelectBuilder_InterfaceConstraints(t *testing.T) {
	t.Run("select_returns_the_from_stage", func(t *testing.T) {
		builder := nosql.Select()

		assert.Implements(t, (*nosql.SelectFrom)(nil), builder)
	})

	t.Run("from_returns_the_query_build_stage", func(t *testing.T) {
		builder := nosql.Select().From("people")

		assert.Implements(t, (*nosql.SelectQueryBuild)(nil), builder)
	})

	t.Run("where_returns_the_condition_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").Where("age")

		assert.Implements(t, (*nosql.SelectCondition)(nil), builder)
	})

	t.Run("comparator_returns_the_where_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").Where("age").Gte(21)

		assert.Implements(t, (*nosql.SelectWhere)(nil), builder)
	})

	t.Run("order_by_returns_the_order_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").OrderBy("name")

		assert.Implements(t, (*nosql.SelectOrder)(nil), builder)
	})

	t.Run("direction_returns_the_ordered_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").OrderBy("name").Asc()

		assert.Implements(t, (*nosql.SelectOrdered)(nil), builder)
	})

	t.Run("limit_returns_the_limit_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").Limit(10)

		assert.Implements(t, (*nosql.SelectLimit)(nil), builder)
	})

	t.Run("skip_returns_the_skip_stage", func(t *testing.T) {
		builder := nosql.Select().From("people").Skip(10)

		assert.Implements(t, (*nosql.SelectSkip)(nil), builder)
	})
}
