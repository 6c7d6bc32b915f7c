package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry(schema.DefaultCatalog(), schema.DefaultFuzzyThreshold, zap.NewNop())
	require.NoError(t, r.Build())
	return r
}

func newValidator(t *testing.T, reader *repositories.MockDomainReader) Validator {
	t.Helper()
	return New(reader, testRegistry(t), zap.NewNop())
}

func existsOnly(known map[string]bool) *repositories.MockDomainReader {
	return &repositories.MockDomainReader{
		ExistsFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
			return known[value], nil
		},
	}
}

func TestValidateCoherenceAcceptsKnownReferences(t *testing.T) {
	v := newValidator(t, existsOnly(map[string]bool{
		"001234567890123": true,
		"BC-2024/001":     true,
		"INV-0042":        true,
	}))

	ok, reason, err := v.ValidateCoherence(context.Background(),
		"La commande BC-2024/001 du fournisseur 001234567890123 couvre le matériel INV-0042.")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestValidateCoherenceRejectsUnknownEquipmentCode(t *testing.T) {
	v := newValidator(t, existsOnly(nil))

	ok, reason, err := v.ValidateCoherence(context.Background(), "Le matériel INV-9999 est affecté à Karim.")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "INV-9999")
	assert.Contains(t, reason, "matériel")
}

func TestValidateCoherenceRoutesDocumentPrefixes(t *testing.T) {
	var checked []string
	reader := &repositories.MockDomainReader{
		ExistsFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
			checked = append(checked, d.Key+"/"+column)
			return true, nil
		},
	}
	v := newValidator(t, reader)

	ok, _, err := v.ValidateCoherence(context.Background(), "BL-2024-7 confirme la commande BC-2024/001.")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, checked, "achats.livraison/numero_bl")
	assert.Contains(t, checked, "achats.commande/numero")
}

func TestValidateCoherenceStopsAtFirstFailure(t *testing.T) {
	calls := 0
	reader := &repositories.MockDomainReader{
		ExistsFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
			calls++
			return false, nil
		},
	}
	v := newValidator(t, reader)

	ok, _, err := v.ValidateCoherence(context.Background(), "BC-1 et BL-2 et INV-3")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestValidateCoherenceWithoutReferences(t *testing.T) {
	reader := &repositories.MockDomainReader{
		ExistsFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
			t.Fatal("no existence check expected")
			return false, nil
		},
	}
	v := newValidator(t, reader)

	ok, reason, err := v.ValidateCoherence(context.Background(), "Nombre de fournisseurs : 12")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestValidateCoherencePropagatesReaderErrors(t *testing.T) {
	wantErr := errors.New("connection lost")
	reader := &repositories.MockDomainReader{
		ExistsFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
			return false, wantErr
		},
	}
	v := newValidator(t, reader)

	_, _, err := v.ValidateCoherence(context.Background(), "matériel INV-0042")
	assert.ErrorIs(t, err, wantErr)
}

func TestValidateStatisticsFlagsMismatches(t *testing.T) {
	reader := &repositories.MockDomainReader{
		CountFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error) {
			if d.Key == "achats.fournisseur" {
				return 12, nil
			}
			return 40, nil
		},
	}
	v := newValidator(t, reader)

	discrepancies, err := v.ValidateStatistics(context.Background(), map[string]int64{
		"achats.fournisseur": 12, // matches
		"parc.materiel":      99, // does not
	})
	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	assert.Contains(t, discrepancies[0], "parc.materiel")
	assert.Contains(t, discrepancies[0], "99")
	assert.Contains(t, discrepancies[0], "40")
}

func TestSanitizeReplacesFingerprints(t *testing.T) {
	v := newValidator(t, &repositories.MockDomainReader{})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"unverified placeholder",
			"Livré le [non vérifié] par Atlas Info",
			"Livré le donnée non disponible par Atlas Info",
		},
		{
			"second-precision timestamp",
			"Commande créée le 2024-03-15T14:22:37Z auprès du fournisseur",
			"Commande créée le donnée non disponible auprès du fournisseur",
		},
		{
			"clean text untouched",
			"Nombre de commandes : 8",
			"Nombre de commandes : 8",
		},
		{
			"plain date kept",
			"Garantie jusqu'au 2025-01-31",
			"Garantie jusqu'au 2025-01-31",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Sanitize(tt.in))
		})
	}
}

func TestSanitizeEmptyResponses(t *testing.T) {
	v := newValidator(t, &repositories.MockDomainReader{})

	assert.Equal(t, NoDataMessage, v.Sanitize(""))
	assert.Equal(t, NoDataMessage, v.Sanitize("   "))
	assert.Equal(t, NoDataMessage, v.Sanitize("..."))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	v := newValidator(t, &repositories.MockDomainReader{})

	inputs := []string{
		"Livré le [non vérifié] par Atlas Info",
		"",
		"Réponse normale sans artefact.",
	}
	for _, in := range inputs {
		once := v.Sanitize(in)
		assert.Equal(t, once, v.Sanitize(once))
	}
}

func TestFormatRejection(t *testing.T) {
	assert.Equal(t, "donnée non disponible", FormatRejection(""))
	assert.Equal(t, "donnée non disponible (matériel inexistant : INV-9)", FormatRejection("matériel inexistant : INV-9"))
}
