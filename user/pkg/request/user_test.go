package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginMasksPassword(t *testing.T) {
	expectedMap := map[string]string{"email": "buyer@example.com", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := Login{Email: "buyer@example.com", Password: "hunter22"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "hunter22", loginReq.Password)
}

func TestRegisterMasksPassword(t *testing.T) {
	registerReq := Register{Name: "Jane", Email: "buyer@example.com", Password: "hunter22"}

	actual, _ := json.Marshal(registerReq)

	assert.NotContains(t, string(actual), "hunter22")
	assert.EqualValues(t, "hunter22", registerReq.Password)
}
