package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	t.Setenv("GATEWAY_TEST_STRING", "value")

	assert.Equal(t, "value", GetString("GATEWAY_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", GetString("GATEWAY_TEST_MISSING", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("GATEWAY_TEST_INT", " 42 ")
	t.Setenv("GATEWAY_TEST_BAD_INT", "forty-two")

	assert.Equal(t, 42, GetInt("GATEWAY_TEST_INT", 0))
	assert.Equal(t, 7, GetInt("GATEWAY_TEST_BAD_INT", 7))
	assert.Equal(t, 7, GetInt("GATEWAY_TEST_MISSING", 7))
}

func TestGetBoolAndFloat(t *testing.T) {
	t.Setenv("GATEWAY_TEST_BOOL", "true")
	t.Setenv("GATEWAY_TEST_FLOAT", "2.5")

	assert.True(t, GetBool("GATEWAY_TEST_BOOL", false))
	assert.False(t, GetBool("GATEWAY_TEST_MISSING", false))
	assert.InDelta(t, 2.5, GetFloat("GATEWAY_TEST_FLOAT", 0), 0.0001)
}

func TestGetSeconds(t *testing.T) {
	t.Setenv("GATEWAY_TEST_SECONDS", "15")
	t.Setenv("GATEWAY_TEST_ZERO_SECONDS", "0")

	assert.Equal(t, 15*time.Second, GetSeconds("GATEWAY_TEST_SECONDS", time.Second))
	assert.Equal(t, time.Duration(0), GetSeconds("GATEWAY_TEST_ZERO_SECONDS", time.Second))
	assert.Equal(t, time.Second, GetSeconds("GATEWAY_TEST_MISSING", time.Second))
}

func TestGetList(t *testing.T) {
	t.Setenv("GATEWAY_TEST_LIST", "https://a.example, ,https://b.example")
	t.Setenv("GATEWAY_TEST_EMPTY_LIST", " , ")

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, GetList("GATEWAY_TEST_LIST", nil))
	assert.Equal(t, []string{"*"}, GetList("GATEWAY_TEST_EMPTY_LIST", []string{"*"}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"company_42", "store_7"}, SplitList("company_42, store_7,"))
	assert.Nil(t, SplitList(""))
}
