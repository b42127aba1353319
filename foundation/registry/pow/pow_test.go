package pow_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/registrychain/registry/foundation/registry/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

var maxU256 = new(uint256.Int).Not(uint256.NewInt(0))

// =============================================================================

func Test_HarmonicMean(t *testing.T) {
	type table struct {
		name   string
		inputs []*uint256.Int
		want   *uint256.Int
	}

	tt := []table{
		{name: "empty", inputs: nil, want: u(0)},
		{name: "single zero", inputs: []*uint256.Int{u(0)}, want: u(0)},
		{name: "single one", inputs: []*uint256.Int{u(1)}, want: u(1)},
		{name: "two ones", inputs: []*uint256.Int{u(1), u(1)}, want: u(1)},
		{name: "one four four", inputs: []*uint256.Int{u(1), u(4), u(4)}, want: u(2)},
		{name: "max", inputs: []*uint256.Int{maxU256}, want: maxU256},
		{name: "max twice", inputs: []*uint256.Int{maxU256, maxU256}, want: maxU256},
	}

	t.Log("Given the need to validate the harmonic mean.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen pushing the %s inputs.", testID, tst.name)
			{
				mean := pow.NewHarmonicMean()
				for _, input := range tst.inputs {
					mean.Push(input)
				}

				if got := mean.Calculate(); !got.Eq(tst.want) {
					t.Errorf("\t%s\tTest %d:\tShould get the correct mean: got %s, exp %s.", failed, testID, got, tst.want)
				} else {
					t.Logf("\t%s\tTest %d:\tShould get the correct mean.", success, testID)
				}
			}
		}
	}
}

func Test_NextDifficulty(t *testing.T) {
	const (
		initial  = uint64(1000)
		targetMS = uint64(1000)
		window   = 3
	)

	samplesAt := func(difficulty uint64, intervalMS uint64) []pow.Sample {
		samples := make([]pow.Sample, window+1)
		for i := range samples {
			samples[i] = pow.Sample{
				Difficulty: u(difficulty),
				TimeStamp:  uint64(i) * intervalMS,
			}
		}
		return samples
	}

	t.Log("Given the need to validate difficulty retargeting.")
	{
		t.Logf("\tTest 0:\tWhen the chain is shorter than the window.")
		{
			got := pow.NextDifficulty(initial, targetMS, window, samplesAt(500, 1000)[:window])
			if !got.Eq(u(initial)) {
				t.Fatalf("\t%s\tTest 0:\tShould hold the initial difficulty: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the initial difficulty.", success)
		}

		t.Logf("\tTest 1:\tWhen blocks arrive exactly on target.")
		{
			got := pow.NextDifficulty(initial, targetMS, window, samplesAt(1000, targetMS))
			if !got.Eq(u(1000)) {
				t.Fatalf("\t%s\tTest 1:\tShould keep the difficulty steady: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the difficulty steady.", success)
		}

		t.Logf("\tTest 2:\tWhen blocks arrive too fast.")
		{
			got := pow.NextDifficulty(initial, targetMS, window, samplesAt(1000, targetMS/2))
			if !got.Gt(u(1000)) {
				t.Fatalf("\t%s\tTest 2:\tShould raise the difficulty: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 2:\tShould raise the difficulty.", success)

			// One window can at most double.
			if got.Gt(u(2000)) {
				t.Fatalf("\t%s\tTest 2:\tShould clamp the raise: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 2:\tShould clamp the raise.", success)
		}

		t.Logf("\tTest 3:\tWhen blocks arrive too slow.")
		{
			got := pow.NextDifficulty(initial, targetMS, window, samplesAt(1000, targetMS*10))
			if !got.Lt(u(1000)) {
				t.Fatalf("\t%s\tTest 3:\tShould lower the difficulty: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 3:\tShould lower the difficulty.", success)

			// One window can at most halve.
			if got.Lt(u(500)) {
				t.Fatalf("\t%s\tTest 3:\tShould clamp the drop: got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 3:\tShould clamp the drop.", success)
		}

		t.Logf("\tTest 4:\tWhen the difficulty would drop below one.")
		{
			got := pow.NextDifficulty(initial, targetMS, window, samplesAt(1, targetMS*100))
			if got.IsZero() {
				t.Fatalf("\t%s\tTest 4:\tShould floor the difficulty at one.", failed)
			}
			t.Logf("\t%s\tTest 4:\tShould floor the difficulty at one.", success)
		}
	}
}

func Test_Sealing(t *testing.T) {
	t.Log("Given the need to validate mining and seal verification.")
	{
		t.Logf("\tTest 0:\tWhen mining at a trivial difficulty.")
		{
			algorithm := pow.NewKeccakPowWithSeed(42)
			difficulty := u(2)
			preHash := "0xabc123"

			nonce, ok := algorithm.Mine(preHash, difficulty)
			if !ok {
				t.Fatalf("\t%s\tTest 0:\tShould find a seal within one round.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find a seal within one round.", success)

			if !algorithm.Verify(preHash, nonce, difficulty) {
				t.Fatalf("\t%s\tTest 0:\tShould verify its own seal.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould verify its own seal.", success)

			if algorithm.Verify("0xother", nonce, difficulty) {
				t.Fatalf("\t%s\tTest 0:\tShould bind the seal to the pre-hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould bind the seal to the pre-hash.", success)

			if algorithm.Verify(preHash, nonce, maxU256) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the seal at an impossible difficulty.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the seal at an impossible difficulty.", success)
		}

		t.Logf("\tTest 1:\tWhen running the dummy algorithm.")
		{
			algorithm := pow.DummyPow{}

			nonce, ok := algorithm.Mine("0xabc", u(1))
			if !ok {
				t.Fatalf("\t%s\tTest 1:\tShould always find a seal.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould always find a seal.", success)

			if !algorithm.Verify("0xabc", nonce, u(1)) {
				t.Fatalf("\t%s\tTest 1:\tShould always verify.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould always verify.", success)
		}
	}
}
