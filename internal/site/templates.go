package site

// layoutTemplate wraps every page; each page defines "content".
const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="{{.Lang}}" data-theme="light">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} · rfqpilot</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body>
  <header class="top-bar">
    <a class="brand" href="/">rfqpilot</a>
    <nav>
      <a href="/">{{index .L "home"}}</a>
      <a href="/capabilities">{{index .L "capabilities"}}</a>
      <a href="/pricing">{{index .L "pricing"}}</a>
      <a href="/blog">{{index .L "blog"}}</a>
      <a class="cta" href="/app?view=buyer_workspace">{{index .L "app"}}</a>
    </nav>
  </header>
  <main class="page-content">
    {{template "content" .}}
  </main>
  <footer>© rfqpilot · RFQs in minutes, not weeks</footer>
</body>
</html>{{end}}`

const landingTemplate = `{{define "content"}}
<section class="hero">
  <h1>RFQs in minutes, not weeks</h1>
  <p>Draft requests for quotation from emails and drawings, send them to suppliers as a link, and compare the bids that come back.</p>
  <a class="cta" href="/app?view=buyer_workspace">{{index .L "app"}}</a>
</section>
<section class="grid">
  {{range .Data.Capabilities}}
  <article class="card">
    <h3><a href="/capabilities/{{.Slug}}">{{.Title}}</a></h3>
    <p>{{.Summary}}</p>
  </article>
  {{end}}
</section>
{{with .Data.Latest}}
<section>
  <h2>From the blog</h2>
  <p><a href="/blog/{{.Slug}}">{{.Title}}</a>: {{.Summary}}</p>
</section>
{{end}}
{{end}}`

const capabilitiesTemplate = `{{define "content"}}
<h1>{{index .L "capabilities"}}</h1>
<section class="grid">
  {{range .Data}}
  <article class="card">
    <h3><a href="/capabilities/{{.Slug}}">{{.Title}}</a></h3>
    <p>{{.Summary}}</p>
  </article>
  {{end}}
</section>
{{end}}`

const capabilityTemplate = `{{define "content"}}
<h1>{{.Data.Title}}</h1>
<p class="lead">{{.Data.Summary}}</p>
<ul>
  {{range .Data.Points}}<li>{{.}}</li>{{end}}
</ul>
{{end}}`

const pricingTemplate = `{{define "content"}}
<h1>{{index .L "pricing"}}</h1>
<section class="grid">
  {{range .Data.Plans}}
  <article class="card">
    <h3>{{.Name}}</h3>
    <p class="price">€{{printf "%.0f" .Monthly}} / month</p>
    {{if .Setup}}<p>€{{printf "%.0f" .Setup}} onboarding</p>{{end}}
    <p>{{if .RFQs}}{{.RFQs}} RFQs per month{{else}}Unlimited RFQs{{end}}</p>
    <p>{{.Pitch}}</p>
  </article>
  {{end}}
</section>
<section class="roi">
  <h2>Return on investment</h2>
  <form method="get" action="/pricing">
    <label>RFQs per month <input type="number" name="rfqs" min="0" value="{{.Data.Input.RFQsPerMonth}}"></label>
    <label>Hours per RFQ <input type="number" name="hours" min="0" step="0.5" value="{{.Data.Input.HoursPerRFQ}}"></label>
    <label>Hourly rate <input type="number" name="rate" min="0" value="{{.Data.Input.HourlyRate}}"></label>
    <label>Plan <select name="plan">{{range .Data.Plans}}<option value="{{.ID}}"{{if eq .ID $.Data.Input.Plan}} selected{{end}}>{{.Name}}</option>{{end}}</select></label>
    <button type="submit">{{index .L "calc"}}</button>
  </form>
  {{with .Data.Result}}
  <dl>
    <dt>Hours saved per month</dt><dd>{{printf "%.1f" .HoursSaved}}</dd>
    <dt>Savings per month</dt><dd>€{{printf "%.2f" .Savings}}</dd>
    <dt>Net after {{.Plan.Name}}</dt><dd>€{{printf "%.2f" .Net}}</dd>
    <dt>Payback</dt><dd>{{if .PaysBack}}{{printf "%.1f" .PaybackMonths}} months{{else}}does not pay back at this volume{{end}}</dd>
  </dl>
  {{end}}
  {{with .Data.Error}}<p class="error">{{.}}</p>{{end}}
</section>
{{end}}`

const blogIndexTemplate = `{{define "content"}}
<h1>{{index .L "blog"}}</h1>
{{range .Data}}
<article class="post-summary">
  <h2><a href="/blog/{{.Slug}}">{{.Title}}</a></h2>
  <time datetime="{{.Date.Format "2006-01-02"}}">{{.Date.Format "2 January 2006"}}</time>
  <p>{{.Summary}}</p>
</article>
{{else}}
<p>No posts yet.</p>
{{end}}
{{end}}`

const blogPostTemplate = `{{define "content"}}
<article class="post">
  <time datetime="{{.Data.Date.Format "2006-01-02"}}">{{.Data.Date.Format "2 January 2006"}}</time>
  {{.Data.HTML}}
</article>
<p><a href="/blog">← {{index .L "blog"}}</a></p>
{{end}}`

// cssContent is the stylesheet shared by all pages.
const cssContent = `:root {
  --bg: #ffffff;
  --fg: #1f2328;
  --muted: #59636e;
  --accent: #0b5cad;
  --card: #f6f8fa;
  --border: #d1d9e0;
}
* { box-sizing: border-box; }
body { margin: 0; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; color: var(--fg); background: var(--bg); line-height: 1.6; }
.top-bar { display: flex; justify-content: space-between; align-items: center; padding: 12px 32px; border-bottom: 1px solid var(--border); }
.top-bar nav a { margin-left: 20px; color: var(--fg); text-decoration: none; }
.brand { font-weight: 700; font-size: 1.2rem; color: var(--accent); text-decoration: none; }
.cta { background: var(--accent); color: #fff !important; padding: 8px 16px; border-radius: 6px; text-decoration: none; }
.page-content { max-width: 960px; margin: 0 auto; padding: 32px; }
.hero { text-align: center; padding: 48px 0; }
.hero h1 { font-size: 2.5rem; margin-bottom: 8px; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; margin: 24px 0; }
.card { background: var(--card); border: 1px solid var(--border); border-radius: 8px; padding: 16px; }
.price { font-size: 1.5rem; font-weight: 600; }
.roi form { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 12px; align-items: end; }
.roi dl { display: grid; grid-template-columns: max-content auto; gap: 4px 16px; }
.error { color: #cf222e; }
time { color: var(--muted); font-size: 0.9rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid var(--border); padding: 6px 12px; }
pre { background: var(--card); padding: 12px; overflow-x: auto; border-radius: 6px; }
footer { text-align: center; color: var(--muted); padding: 32px; border-top: 1px solid var(--border); }
`
