package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibrary(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		patterns []Pattern
		wantErr  bool
	}{
		{
			name: "valid patterns",
			patterns: []Pattern{
				{Name: "Prefixed", Concern: ConcernAmount, Regex: `rs\.?\s*(\d+)`, Priority: 100},
				{Name: "Gate", Concern: ConcernGate, Regex: `debited`, Priority: 100},
			},
		},
		{
			name: "invalid regex",
			patterns: []Pattern{
				{Name: "Broken", Concern: ConcernGate, Regex: `[unclosed`},
			},
			wantErr: true,
			errMsg:  "does not compile",
		},
		{
			name: "extracting concern without group",
			patterns: []Pattern{
				{Name: "NoGroup", Concern: ConcernAmount, Regex: `rs\s*\d+`},
			},
			wantErr: true,
			errMsg:  "no capture group",
		},
		{
			name: "unknown concern",
			patterns: []Pattern{
				{Name: "Odd", Concern: Concern("weather"), Regex: `rain`},
			},
			wantErr: true,
			errMsg:  "unknown pattern concern",
		},
		{
			name: "empty name",
			patterns: []Pattern{
				{Concern: ConcernGate, Regex: `paid`},
			},
			wantErr: true,
			errMsg:  "name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := NewLibrary(tt.patterns)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, lib)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, lib)
		})
	}
}

func TestLibrary_RuleOrder(t *testing.T) {
	lib, err := NewLibrary([]Pattern{
		{Name: "low", Concern: ConcernMerchant, Regex: `to (\w+)`, Priority: 10},
		{Name: "high-first", Concern: ConcernMerchant, Regex: `at (\w+)`, Priority: 90},
		{Name: "high-second", Concern: ConcernMerchant, Regex: `via (\w+)`, Priority: 90},
	})
	require.NoError(t, err)

	var names []string
	for _, r := range lib.Rules(ConcernMerchant) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high-first", "high-second", "low"}, names)
}

func TestLibrary_FirstMatch(t *testing.T) {
	lib, err := NewLibrary([]Pattern{
		{Name: "generic", Concern: ConcernMerchant, Regex: `to (\w+)`, Priority: 10},
		{Name: "specific", Concern: ConcernMerchant, Regex: `at (\w+)`, Priority: 90},
		{Name: "Acme", Concern: ConcernProvider, Regex: `acme`, Label: "ACME"},
	})
	require.NoError(t, err)

	t.Run("priority beats position", func(t *testing.T) {
		m, ok := lib.FirstMatch(ConcernMerchant, "sent to alice at Bazaar")
		require.True(t, ok)
		assert.Equal(t, "specific", m.Rule)
		assert.Equal(t, "Bazaar", m.Value)
	})

	t.Run("falls through to later rule", func(t *testing.T) {
		m, ok := lib.FirstMatch(ConcernMerchant, "sent to alice")
		require.True(t, ok)
		assert.Equal(t, "alice", m.Value)
	})

	t.Run("case insensitive by default", func(t *testing.T) {
		m, ok := lib.FirstMatch(ConcernProvider, "ACME-ALERTS")
		require.True(t, ok)
		assert.Equal(t, "ACME", m.Value)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := lib.FirstMatch(ConcernMerchant, "nothing here")
		assert.False(t, ok)
		assert.False(t, lib.Matches(ConcernGate, "anything"))
	})
}

func TestLibrary_Each(t *testing.T) {
	lib, err := NewLibrary([]Pattern{
		{Name: "one", Concern: ConcernMerchant, Regex: `at (\w+)`, Priority: 90},
		{Name: "two", Concern: ConcernMerchant, Regex: `to (\w+)`, Priority: 80},
	})
	require.NoError(t, err)

	var seen []string
	lib.Each(ConcernMerchant, "paid to shop at mall", func(m Match) bool {
		seen = append(seen, m.Value)
		return m.Value == "mall"
	})
	assert.Equal(t, []string{"mall", "shop"}, seen)
}

func TestLibrary_Extend(t *testing.T) {
	lib, err := NewLibrary([]Pattern{
		{Name: "base", Concern: ConcernProvider, Regex: `bank`, Label: "Bank", Priority: 50},
	})
	require.NoError(t, err)

	err = lib.Extend([]Pattern{
		{Name: "override", Concern: ConcernProvider, Regex: `bank`, Label: "Override", Priority: 60},
		{Name: "tail", Concern: ConcernProvider, Regex: `bank`, Label: "Tail", Priority: 50},
	})
	require.NoError(t, err)

	m, ok := lib.FirstMatch(ConcernProvider, "my bank")
	require.True(t, ok)
	assert.Equal(t, "Override", m.Value)
	assert.Len(t, lib.Rules(ConcernProvider), 3)
	assert.Equal(t, "tail", lib.Rules(ConcernProvider)[2].Name)

	err = lib.Extend([]Pattern{{Name: "bad", Concern: ConcernAmount, Regex: `\d+`}})
	require.Error(t, err)
	assert.Len(t, lib.Rules(ConcernAmount), 0, "failed extend must not change tables")
}

func TestDefaultPatterns_Compile(t *testing.T) {
	require.NoError(t, Validate(DefaultPatterns()))
	lib := Default()

	for _, c := range Concerns {
		assert.NotEmpty(t, lib.Rules(c), "concern %s has no default rules", c)
	}
}

func TestDefaultPatterns_ProviderOrder(t *testing.T) {
	lib := Default()

	var labels []string
	for _, r := range lib.Rules(ConcernProvider) {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{
		"SBI", "HDFC", "ICICI", "Axis", "Kotak", "PNB", "BOB", "Paytm",
		"GPay", "PhonePe", "IDBI", "Yes Bank", "IndusInd", "Federal",
	}, labels)

	m, ok := lib.FirstMatch(ConcernProvider, "GPAY Rs. 150 sent via Google Pay to PhonePe")
	require.True(t, ok)
	assert.Equal(t, "GPay", m.Value)
}

func TestDefaultPatterns_Amounts(t *testing.T) {
	lib := Default()

	tests := []struct {
		text string
		want string
	}{
		{"INR 2,500.00 debited", "2,500.00"},
		{"Rs.1,00,000.50 debited", "1,00,000.50"},
		{"₹350 paid", "350"},
		{"INR15000 credited", "15000"},
		{"1200 Rs debited", "1200"},
		{"amount of 99.50 debited", "99.50"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, ok := lib.FirstMatch(ConcernAmount, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Value)
		})
	}
}
