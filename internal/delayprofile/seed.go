package delayprofile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

// SeedFile is the on-disk YAML form of a delay profile set.
type SeedFile struct {
	Profiles []SeedProfile `yaml:"profiles"`
}

// SeedProfile is one profile in a seed file. The entry with order
// "fallback" configures the default profile.
type SeedProfile struct {
	PreferredProtocol types.Protocol `yaml:"preferredProtocol,omitempty"`
	UsenetDelay       int            `yaml:"usenetDelay"`
	TorrentDelay      int            `yaml:"torrentDelay"`
	UsenetDelayMode   DelayMode      `yaml:"usenetDelayMode,omitempty"`
	TorrentDelayMode  DelayMode      `yaml:"torrentDelayMode,omitempty"`
	Order             Order          `yaml:"order"`
	Tags              []int64        `yaml:"tags,omitempty"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	defaults := 0
	for _, p := range seed.Profiles {
		if p.Order.IsFallback() {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%w: seed file has %d fallback profiles", ErrInvalidProfile, defaults)
	}
	return &seed, nil
}

// ApplySeed updates the default profile from the fallback entry and adds
// every other entry as a new tagged profile.
func (s *Store) ApplySeed(ctx context.Context, seed *SeedFile) error {
	if err := s.EnsureDefault(ctx); err != nil {
		return err
	}
	def, _ := s.Snapshot().Default()

	for i := range seed.Profiles {
		sp := seed.Profiles[i]
		input := Input{
			PreferredProtocol: sp.PreferredProtocol,
			UsenetDelay:       sp.UsenetDelay,
			TorrentDelay:      sp.TorrentDelay,
			UsenetDelayMode:   sp.UsenetDelayMode,
			TorrentDelayMode:  sp.TorrentDelayMode,
			Tags:              sp.Tags,
		}

		if sp.Order.IsFallback() {
			if _, err := s.Update(ctx, def.ID, input); err != nil {
				return fmt.Errorf("seed default profile: %w", err)
			}
			continue
		}

		if rank, ok := sp.Order.Rank(); ok && rank > 0 {
			input.Order = &rank
		}
		if _, err := s.Add(ctx, input); err != nil {
			return fmt.Errorf("seed profile %d: %w", i+1, err)
		}
	}

	s.logger.Info().Int("profiles", len(seed.Profiles)).Msg("Applied delay profile seed")
	return nil
}

// ExportSeed renders the current profiles as seed YAML.
func (s *Store) ExportSeed() ([]byte, error) {
	var seed SeedFile
	for _, p := range s.Snapshot().Profiles() {
		seed.Profiles = append(seed.Profiles, SeedProfile{
			PreferredProtocol: p.PreferredProtocol,
			UsenetDelay:       p.UsenetDelay,
			TorrentDelay:      p.TorrentDelay,
			UsenetDelayMode:   p.UsenetDelayMode,
			TorrentDelayMode:  p.TorrentDelayMode,
			Order:             p.Order,
			Tags:              p.Tags,
		})
	}
	return yaml.Marshal(&seed)
}

// ExportSeedFile writes the current profiles to path.
func (s *Store) ExportSeedFile(path string) error {
	data, err := s.ExportSeed()
	if err != nil {
		return fmt.Errorf("failed to render seed file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}
	return nil
}
