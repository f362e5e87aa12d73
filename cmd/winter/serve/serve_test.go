package servecmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	servecmder "github.com/papercomputeco/winter/cmd/winter/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the listen and mcp flags", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		Expect(cmd.Flags().Lookup("listen")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("no-mcp")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("storage")).NotTo(BeNil())
	})
})

var _ = Describe("Serve command execution", func() {
	freeAddr := func() string {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := l.Addr().String()
		Expect(l.Close()).To(Succeed())
		return addr
	}

	It("serves until its context is cancelled", func() {
		dir := GinkgoT().TempDir()
		addr := freeAddr()

		root := &cobra.Command{Use: "winter", SilenceUsage: true}
		root.PersistentFlags().Bool("debug", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(servecmder.NewServeCmd())
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"serve", "--config-dir", dir, "--storage", "memory", "--listen", addr})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- root.ExecuteContext(ctx)
		}()

		Eventually(func() (string, error) {
			resp, err := http.Get("http://" + addr + "/ping")
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			return string(body), err
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(ContainSubstring("pong"))

		cancel()
		Eventually(done).WithTimeout(10 * time.Second).Should(Receive(BeNil()))
	})

	It("appends JSON records to --log-file", func() {
		dir := GinkgoT().TempDir()
		logPath := filepath.Join(dir, "winter.log")
		addr := freeAddr()

		root := &cobra.Command{Use: "winter", SilenceUsage: true}
		root.PersistentFlags().Bool("debug", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(servecmder.NewServeCmd())
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"serve", "--config-dir", dir, "--storage", "memory", "--listen", addr, "--log-file", logPath})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- root.ExecuteContext(ctx)
		}()

		Eventually(func() error {
			resp, err := http.Get("http://" + addr + "/ping")
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Succeed())

		cancel()
		Eventually(done).WithTimeout(10 * time.Second).Should(Receive(BeNil()))

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())

		var first map[string]any
		line, _, _ := strings.Cut(string(data), "\n")
		Expect(json.Unmarshal([]byte(line), &first)).To(Succeed())
		Expect(first).To(HaveKey("source"))
		Expect(string(data)).To(ContainSubstring(`"msg":"starting API server"`))
	})

	It("fails on an unknown storage provider", func() {
		root := &cobra.Command{Use: "winter", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().Bool("debug", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(servecmder.NewServeCmd())
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"serve", "--config-dir", GinkgoT().TempDir(), "--storage", "carrier-pigeon"})

		Expect(root.Execute()).To(MatchError(ContainSubstring("unsupported storage provider")))
	})
})
