package keyscmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	keyscmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/keys"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/credentials"
)

var _ = Describe("NewKeysCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := keyscmder.NewKeysCmd()
		Expect(cmd.Use).To(Equal("keys [provider]"))
	})

	It("has import and export subcommands", func() {
		cmd := keyscmder.NewKeysCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("import", "export"))
	})
})

var _ = Describe("Keys command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "deepresearch-keys-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.MkdirAll(filepath.Join(tmpDir, ".deepresearch"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("lists an empty store without error", func() {
		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"--list"})
		Expect(cmd.Execute()).To(Succeed())
	})

	It("removes a stored key", func() {
		mgr, err := credentials.NewManager("")
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"--remove", "openai"})
		Expect(cmd.Execute()).To(Succeed())

		key, err := mgr.GetKey("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(BeEmpty())
	})

	It("imports keys from the environment", func() {
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"import", "--from-env"})
		Expect(cmd.Execute()).To(Succeed())

		mgr, err := credentials.NewManager("")
		Expect(err).NotTo(HaveOccurred())
		key, err := mgr.GetKey("anthropic")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("sk-ant-test"))
	})

	It("exports the store to a file", func() {
		mgr, err := credentials.NewManager("")
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("google", "g-test")).To(Succeed())

		outPath := filepath.Join(tmpDir, "exported.toml")
		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"export", outPath})
		Expect(cmd.Execute()).To(Succeed())

		data, err := os.ReadFile(outPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("g-test"))
	})

	It("rejects import without a source", func() {
		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"import"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})

	It("rejects unsupported providers on remove of unknown provider silently", func() {
		cmd := keyscmder.NewKeysCmd()
		cmd.SetArgs([]string{"--remove", "unknown"})
		// Removing a provider that was never stored is a no-op.
		Expect(cmd.Execute()).To(Succeed())
	})
})
