package cmd

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

var _ = Describe("colab command", func() {
	roster := colab.BuildRoster([]colab.Profile{{
		ID:      1,
		Name:    "Front desk",
		Modules: []colab.Module{{ID: 1, Name: "Ticketing"}, {ID: 2, Name: "Hotel"}},
		Users:   []colab.User{{ID: 101, Name: "Alice"}},
	}})
	userID := func(id int64) *int64 { return &id }

	Describe("parseIntents", func() {
		It("should resolve modules by name or ID and replay deactivations last", func() {
			intents, err := parseIntents(roster, []string{"ticketing=101", "2="}, []string{"Ticketing"})

			Expect(err).NotTo(HaveOccurred())
			Expect(intents).To(Equal([]colab.Intent{
				{ModuleID: 1, UserID: userID(101), Active: true},
				{ModuleID: 2, Active: true},
				{ModuleID: 1, Active: false},
			}))
		})

		It("should return no intents without flags", func() {
			intents, err := parseIntents(roster, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(intents).To(BeEmpty())
		})

		DescribeTable("should reject malformed flags",
			func(set, unset []string, message string) {
				_, err := parseIntents(roster, set, unset)
				Expect(err).To(MatchError(ContainSubstring(message)))
			},
			Entry("set without a user separator", []string{"Hotel"}, nil, `expected module=user`),
			Entry("set on an unknown module", []string{"Cruise=101"}, nil, `unknown module "Cruise"`),
			Entry("set with a non-numeric user", []string{"Hotel=alice"}, nil, `invalid user id "alice"`),
			Entry("set with a non-positive user", []string{"1=-4"}, nil, `invalid user id "-4"`),
			Entry("unset on an unknown module", nil, []string{"9"}, `unknown module "9"`),
		)
	})

	Describe("colabServiceConfig", func() {
		It("should carry the lookup and write timeouts", func() {
			cfg := colabServiceConfig(colabFlags{suggestionTimeout: time.Second, writeTimeout: 4 * time.Second})

			Expect(cfg).To(Equal(colab.ServiceConfig{SuggestionTimeout: time.Second, WriteTimeout: 4 * time.Second}))
		})

		It("should default the flags to the server defaults", func() {
			flags := colabCmd.PersistentFlags()

			Expect(flags.Lookup("suggestion-timeout").DefValue).To(Equal("3s"))
			Expect(flags.Lookup("write-timeout").DefValue).To(Equal("10s"))
		})
	})
})
