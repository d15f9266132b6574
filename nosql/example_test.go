package nosql_test

import (
	"fmt"

	"github.com/polystore-db/polystore-go/nosql"
)

func ExampleSelect() {
	query, err := nosql.Select("name", "age").
		From("people").
		Where("age").Gte(21).
		And("city").Eq("Lisbon").
		OrderBy("name").Asc().
		Limit(10).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	condition, _ := query.Condition()

	fmt.Println(query.Collection())
	fmt.Println(condition.Operator())
	fmt.Println(query.Limit())
	// Output:
	// people
	// AND
	// 10
}

func ExampleDelete() {
	query, err := nosql.Delete("nickname").
		From("people").
		Where("age").Lt(18).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(query.Collection(), query.Fields())
	// Output: people [nickname]
}

func ExampleAs() {
	age, err := nosql.As[int](nosql.ValueOf("42"))
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(age)
	// Output: 42
}

func ExampleNewEntity() {
	person, err := nosql.NewEntity("people", nosql.El("name", "Ada"))
	if err != nil {
		fmt.Println(err)
		return
	}

	person.Add(nosql.El("age", 36))

	name, _ := person.Find("name")

	fmt.Println(person.Name(), person.Len())
	fmt.Println(name.Get())
	// Output:
	// people 2
	// Ada
}

func ExampleNewSettings() {
	settings := nosql.NewSettings(map[string]any{
		nosql.SettingHost: "db.example",
		nosql.SettingPort: "5432",
	})

	port, _ := settings.GetInt(nosql.SettingPort)

	fmt.Println(port)
	// Output: 5432
}
