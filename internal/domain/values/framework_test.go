package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldermont/data-governance-backend/internal/domain/errors"
)

func TestNewComplianceFramework(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"GDPR", FrameworkGDPR},
		{"gdpr", FrameworkGDPR},
		{"  soc2  ", FrameworkSOC2},
		{"PCI-DSS", FrameworkPCIDSS},
		{"pci dss", FrameworkPCIDSS},
		{"hipaa", FrameworkHIPAA},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fw, err := NewComplianceFramework(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fw.String())
			assert.False(t, fw.IsEmpty())
		})
	}
}

func TestNewComplianceFramework_Invalid(t *testing.T) {
	for _, input := range []string{"", "SOX", "ISO27001", "gdpr2"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewComplianceFramework(input)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestComplianceFramework_HasStatutoryDeadlines(t *testing.T) {
	assert.True(t, MustNewComplianceFramework("GDPR").HasStatutoryDeadlines())
	assert.True(t, MustNewComplianceFramework("HIPAA").HasStatutoryDeadlines())
	assert.True(t, MustNewComplianceFramework("PCI_DSS").HasStatutoryDeadlines())
	assert.False(t, MustNewComplianceFramework("SOC2").HasStatutoryDeadlines())
	assert.False(t, MustNewComplianceFramework("NIST").HasStatutoryDeadlines())
}

func TestComplianceFramework_DisplayName(t *testing.T) {
	assert.Equal(t, "General Data Protection Regulation", MustNewComplianceFramework("GDPR").DisplayName())
	assert.Equal(t, "PCI Data Security Standard", MustNewComplianceFramework("pci-dss").DisplayName())
}

func TestComplianceFramework_JSON(t *testing.T) {
	fw := MustNewComplianceFramework("gdpr")

	data, err := json.Marshal(fw)
	require.NoError(t, err)
	assert.Equal(t, `"GDPR"`, string(data))

	var decoded ComplianceFramework
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, fw.Equal(decoded))

	var invalid ComplianceFramework
	assert.Error(t, json.Unmarshal([]byte(`"SOX"`), &invalid))
}

func TestComplianceFramework_Scan(t *testing.T) {
	var fw ComplianceFramework
	require.NoError(t, fw.Scan("GDPR"))
	assert.Equal(t, FrameworkGDPR, fw.String())

	require.NoError(t, fw.Scan([]byte("SOC2")))
	assert.Equal(t, FrameworkSOC2, fw.String())

	require.NoError(t, fw.Scan(nil))
	assert.True(t, fw.IsEmpty())

	assert.Error(t, fw.Scan(42))
}

func TestSupportedFrameworks(t *testing.T) {
	names := SupportedFrameworks()
	assert.Len(t, names, 5)
	for _, name := range names {
		_, err := NewComplianceFramework(name)
		assert.NoError(t, err)
	}
}
