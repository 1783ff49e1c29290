package preprocess

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	in, err := ParseJSON([]byte(`  {"person_age": 22, "person_gender": "female"}`))
	require.NoError(t, err)
	rec, ok := in.(Record)
	require.True(t, ok, "object decodes to a Record")
	assert.Equal(t, json.Number("22"), rec["person_age"])

	in, err = ParseJSON([]byte(`[{"person_age": 22}, {"person_age": 30.5}]`))
	require.NoError(t, err)
	b, ok := in.(Batch)
	require.True(t, ok, "array decodes to a Batch")
	assert.Len(t, b, 2)

	in, err = ParseJSON([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, AsBatch(in))

	for _, bad := range []string{"", "42", `"text"`} {
		_, err := ParseJSON([]byte(bad))
		assert.True(t, errors.Is(err, ErrNotApplicant), "input %q", bad)
	}

	_, err = ParseJSON([]byte(`{"person_age": `))
	assert.Error(t, err)
}

func TestFrameOf_JSONNumbers(t *testing.T) {
	in, err := ParseJSON([]byte(`{"person_age": 22, "person_income": null}`))
	require.NoError(t, err)

	f, err := FrameOf(in, []string{"person_age", "person_income"})
	require.NoError(t, err)

	age, _ := f.Column("person_age")
	assert.Equal(t, Num(22), age[0])
	income, _ := f.Column("person_income")
	assert.True(t, income[0].IsMissing())
}
