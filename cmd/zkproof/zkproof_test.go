package zkproof

import (
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/config"
	"github.com/mynextid/zk-age/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeFlagsOverrideConfig(t *testing.T) {
	var f shapeFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-n", "5", "--curve", "bls12-381"}))

	cfg := config.Default()
	shape, err := f.shape(cmd, &cfg)
	require.NoError(t, err)
	assert.Equal(t, cae.Shape{Capacity: 5, YearBits: cae.DefaultYearBits, Curve: ecc.BLS12_381}, shape)

	// unset flags keep the configured value
	cfg = config.Default()
	cmd = &cobra.Command{Use: "test"}
	f = shapeFlags{}
	f.register(cmd)
	shape, err = f.shape(cmd, &cfg)
	require.NoError(t, err)
	assert.Equal(t, cae.DefaultShape(3), shape)

	cmd = &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--year-bits", "4"}))
	_, err = f.shape(cmd, &cfg)
	assert.ErrorIs(t, err, cae.ErrInvalidShape)
}

func TestResolveShapeByName(t *testing.T) {
	var f shapeFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	cfg := config.Default()

	shape, err := resolveShape(cmd, &cfg, "age-eligibility-n7-y32-bn254", &f)
	require.NoError(t, err)
	assert.Equal(t, cae.Shape{Capacity: 7, YearBits: 32, Curve: ecc.BN254}, shape)

	_, err = resolveShape(cmd, &cfg, "over-18", &f)
	assert.Error(t, err)
}

func TestServeFlagsApply(t *testing.T) {
	cfg := config.Default()
	sc, err := server.NewServeConfig(&cfg)
	require.NoError(t, err)

	f := &serveFlags{}
	cmd := &cobra.Command{Use: "serve"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9090",
		"--verify-only",
		"--shapes", "a,b",
		"--cert-file", "c.pem", "--key-file", "k.pem",
	}))
	f.apply(cmd, sc)

	assert.Equal(t, 9090, sc.Port)
	assert.True(t, sc.VerifyOnly)
	assert.Equal(t, []string{"a", "b"}, sc.Shapes)
	assert.True(t, sc.EnableTLS)
	assert.Equal(t, "c.pem", sc.CertFile)
	// untouched settings come from the config
	assert.Equal(t, "0.0.0.0", sc.Host)
	assert.Equal(t, 120*time.Second, sc.WriteTimeout)
	assert.Equal(t, int64(2), sc.MaxConcurrentProofs)
}

func TestIssueDemoLedger(t *testing.T) {
	shape := cae.DefaultShape(4)
	scenarios, commitments, err := issueDemoLedger("1", shape, 2006)
	require.NoError(t, err)
	require.Len(t, commitments, 4)
	require.Len(t, scenarios, 3)

	for _, sc := range scenarios {
		ev, err := cae.Evaluate(shape, cae.Instance{CutoffYear: 2006, Commitments: commitments, Credential: sc.cred})
		require.NoError(t, err, sc.name)
		assert.Equal(t, sc.expected, ev.Eligible(), sc.name)
	}

	// scenario C fails on membership, not on the year
	ev, err := cae.Evaluate(shape, cae.Instance{CutoffYear: 2006, Commitments: commitments, Credential: scenarios[2].cred})
	require.NoError(t, err)
	assert.False(t, ev.Member)
	assert.True(t, ev.BelowCutoff)
}

func TestYearBefore(t *testing.T) {
	assert.Equal(t, "1976", yearBefore(2006, 30))
	assert.Equal(t, "0", yearBefore(20, 30))
}
