package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_PriceFor(t *testing.T) {
	p := Product{
		ID:                   42,
		Name:                 "Pro Ball",
		RetailPrice:          2500,
		WholesaleLevel1Price: 2200,
		WholesaleLevel2Price: 2000,
		WholesaleLevel3Price: 1800,
		TrainerPrice:         2100,
		FederationPrice:      1900,
	}

	tests := []struct {
		role Role
		want int64
	}{
		{RoleRetail, 2500},
		{RoleWholesaleLevel1, 2200},
		{RoleWholesaleLevel2, 2000},
		{RoleWholesaleLevel3, 1800},
		{RoleTrainer, 2100},
		{RoleFederationRep, 1900},
		{RoleAdmin, 2500},
		{Role("bogus"), 2500},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, p.PriceFor(tt.role))
		})
	}
}

func TestProduct_PriceFor_MissingTierFallsBackToRetail(t *testing.T) {
	p := Product{ID: 7, Name: "Basic Cone", RetailPrice: 500}

	assert.Equal(t, int64(500), p.PriceFor(RoleWholesaleLevel2))
	assert.Equal(t, int64(500), p.PriceFor(RoleTrainer))
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), "role %s", r)
	}
	assert.False(t, Role("moderator").Valid())
	assert.False(t, Role("").Valid())
}

func TestRole_IsWholesale(t *testing.T) {
	assert.True(t, RoleWholesaleLevel1.IsWholesale())
	assert.True(t, RoleWholesaleLevel3.IsWholesale())
	assert.False(t, RoleRetail.IsWholesale())
	assert.False(t, RoleTrainer.IsWholesale())
}

func TestRole_UnmarshalJSON(t *testing.T) {
	var r Role
	require.NoError(t, json.Unmarshal([]byte(`"wholesale_level2"`), &r))
	assert.Equal(t, RoleWholesaleLevel2, r)

	err := json.Unmarshal([]byte(`"superuser"`), &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
