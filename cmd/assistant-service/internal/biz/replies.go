package biz

import (
	"strings"
	"time"

	"velora/cmd/assistant-service/internal/domain"
)

// 站点问答的固定文案
const (
	welcomeMessage     = "Hello! I'm Velora's AI assistant powered by advanced AI. I can help you with information about our B2B transport models, pricing, features, or answer any general questions you might have. How can I assist you today?"
	calculatorReply    = "🧮 **Pricing Calculator**\n\nI'm scrolling you to our interactive pricing calculator below! You can:\n\n• Enter your company details (employee count, shifts)\n• Choose vehicle types (Sedan, SUV, Tempo Traveller)\n• Select service frequency (Daily, Weekly, Monthly)\n• Add premium features (AC, GPS tracking)\n• Get instant cost estimates and savings\n\nThe calculator will show you both the estimated monthly cost and potential savings compared to traditional transport. Try it out!"
	companyReply       = "🚀 **About Velora E-Mobility Solutions**\n\nWe're India's pioneering startup in smart transportation technology! Founded by **Krishna Vamsi Veerisetti** (CEO) and **Vijaya Balaji Tatta** (CTO), we specialize in:\n\n🎯 **B2B Corporate Transport Models**\n• Exclusive company travel solutions\n• Intelligent pooled transport with smart matching\n• AI-powered route optimization\n\n💡 **Technology Excellence**\n• Real-time analytics and reporting\n• Seamless HRIS, ERP & finance integration\n• Advanced fleet management\n\n🌱 **Sustainability Focus**\n• Green mobility solutions\n• Cost optimization for enterprises\n• Reduced carbon footprint\n\nWe're trusted by innovative companies, HR teams, and business leaders nationwide. How can we help transform your workplace mobility?"
	helpReply          = "🤖 **I'm your Velora AI Assistant!** Here's how I can help:\n\n🚗 **Transport Models**\n• Exclusive vs Pooled transport options\n• Smart matching algorithms\n• Route optimization strategies\n\n� **Pricing & Business Models**\n• Cost estimation and savings calculator\n• Working models and implementation\n• ROI analysis for your company\n\n🌟 **Features & Benefits**\n• Real-time tracking and analytics\n• HRIS/ERP integration capabilities\n• Sustainability and green mobility\n\n📞 **Get Started**\n• Demo scheduling and consultation\n• Contact our expert team\n• Implementation guidance\n\n🔧 **Technology Insights**\n• AI/ML algorithms and smart systems\n• Platform capabilities and architecture\n\nJust ask me anything about Velora or corporate mobility solutions!"
	howItWorksReply    = "🔄 **How Velora Works - Simple & Effective!**\n\n**Step 1: Assessment** �\n• We analyze your company's transport needs\n• Employee location mapping and shift patterns\n• Current transportation cost analysis\n\n**Step 2: Smart Planning** 🧠\n• AI-powered route optimization\n• Intelligent employee matching for pooled transport\n• Custom transport model design\n\n**Step 3: Seamless Integration** 🔗\n• Connect with your HRIS, ERP, and finance systems\n• Employee onboarding and app setup\n• Real-time tracking and analytics dashboard\n\n**Step 4: Ongoing Optimization** �\n• Continuous route and cost optimization\n• Performance analytics and reporting\n• Scalable solutions as your company grows\n\n**Result**: Up to 40% cost savings, improved employee satisfaction, and sustainable mobility! Ready to see how it works for your company?"
	benefitsReply      = "🌟 **Why Companies Choose Velora E-Mobility?**\n\n💰 **Cost Savings**\n• Up to 40% reduction in transport costs\n• Optimized routes and fuel efficiency\n• Eliminate transport allowance overhead\n\n👥 **Employee Satisfaction**\n• Comfortable, reliable transportation\n• Real-time tracking and safety features\n• Flexible pickup/drop options\n\n🎯 **Operational Excellence**\n• Seamless HRIS/ERP integration\n• Automated attendance and reporting\n• Real-time analytics dashboard\n\n🌱 **Sustainability Goals**\n• Reduced carbon footprint\n• Green mobility initiatives\n• Corporate social responsibility\n\n🚀 **Technology Leadership**\n• AI-powered smart matching\n• Advanced route optimization\n• Scalable cloud-based platform\n\n🛡️ **Enterprise Security**\n• Driver verification and tracking\n• Emergency response systems\n• Compliance and safety standards\n\nReady to transform your company's mobility? Let's discuss your specific needs!"
	contactReply       = "👥 **Meet the Velora Leadership Team**\n\n🎯 **Krishna Vamsi Veerisetti** - CEO & Founder\n• Leading innovation in smart e-mobility solutions\n• Email: kv@veloramobitech.systems\n• Phone: +91 8688505081\n\n💻 **Vijaya Balaji Tatta** - CTO & Co-Founder\n• Expert in AI/ML technologies & system architecture\n• Email: tvb@veloramobitech.systems\n• Phone: +91 9347767825\n\n🌐 **Get Started Today**\n• Visit our dashboard: dashboard.veloramobitech.systems\n• Schedule a personalized demo\n• Discuss your company's specific transport needs\n\nOur expert team is ready to help you transform your workplace mobility! Would you like to schedule a consultation?"
	goodbyeReply       = "👋 Thank you for your interest in Velora E-Mobility Solutions! We're excited about the possibility of transforming your company's transportation. Don't forget to:\n\n✅ Check out our pricing calculator below\n✅ Schedule a demo for personalized insights\n✅ Contact our team for any questions\n\nHave a great day, and we look forward to revolutionizing your workplace mobility! 🚗🌟"
	defaultReply       = "🤔 I'd be happy to help you with that! Here are some popular topics I can assist with:\n\n🚗 **Transport Models** - Exclusive & Pooled options\n💰 **Pricing & ROI** - Cost savings and working models\n🌟 **Features & Benefits** - Technology and sustainability\n🚀 **Getting Started** - Demos and implementation\n👥 **Our Team** - Meet our founders and experts\n📞 **Contact Info** - Reach out to our specialists\n\nCould you please rephrase your question or ask about any of these topics? I'm here to help you discover how Velora can revolutionize your company's mobility!"
	fallbackReply      = "I'm having a temporary issue, but I can still help with Velora's transport models, pricing, or getting started with a demo. What would you like to know?"
	overviewQuickReply = "🚀 Velora is a cutting-edge B2B e-mobility startup that revolutionizes workplace transportation! We provide structured transport models specifically designed for corporate needs, focusing on sustainability, cost efficiency, and employee convenience. Want to know more about our Exclusive or Pooled transport models?"
	modelsQuickReply   = "🚗 We offer two innovative B2B transport models:\n\n**1. Exclusive Company Travel** - Dedicated vehicles for your company with custom scheduling and flexible grouping (1-3 employees per vehicle)\n\n**2. Pooled Inter-Company Travel** - Shared rides across multiple companies for higher efficiency and environmental impact reduction\n\nBoth include smart matching algorithms and employee dashboards! Which model interests you more?"
	pricingQuickReply  = "💰 Our flexible pricing models:\n\n• **Fully Managed Model**: ₹15/trip - Complete company control\n• **Travel Allowance Model**: ₹12/trip - Fixed monthly credits\n• **Enterprise Custom**: Tailored solutions for large organizations\n\n🧮 **Try our Pricing Calculator** below to get an instant estimate based on your specific needs!"
)

var greetingReplies = []string{
	"Hello! 👋 Welcome to **Velora E-Mobility Solutions** - India's leading smart transportation startup! I'm here to help you discover how we're revolutionizing workplace mobility for enterprises across the country. What would you like to know about our B2B transport models?",
	"Hi there! 🚗 Great to see you at Velora! We're transforming corporate mobility with AI-powered route optimization and sustainable transport solutions. How can I help you learn about our exclusive and pooled transport models?",
	"Hey! 🌟 Welcome to the future of enterprise transportation! Velora specializes in smart cab sharing, shuttle management, and fleet analytics for companies like yours. What aspect of our e-mobility solutions interests you most?",
}

var thanksReplies = []string{
	"You're very welcome! 😊 I'm delighted to help you explore Velora's smart e-mobility solutions. Is there anything else you'd like to know about our transport models or how we can revolutionize your company's mobility?",
	"My pleasure! 🚗 It's great to see your interest in sustainable corporate transportation. Feel free to ask about our pricing, implementation process, or schedule a demo with our expert team!",
	"Absolutely happy to help! 🌟 Velora is here to make corporate mobility smarter and more sustainable. What other aspects of our B2B transport solutions would you like to explore?",
}

// CalculatorTarget 价格计算器所在的页面锚点
const CalculatorTarget = "calculator"

// quickRules 产品快速问答，优先级最高
// 运输模式需排在公司简介之前，"What are Velora's transport models?" 同时命中两者
func quickRules() []*Rule {
	return []*Rule{
		{
			Name:     "transport_models",
			Keywords: []string{"transport model", "models"},
			Replies:  []string{modelsQuickReply},
			Source:   domain.SourceQuick,
		},
		{
			Name: "company_overview",
			Match: func(msg string) bool {
				return strings.Contains(msg, "velora") && containsAny(msg, "what", "company")
			},
			Replies: []string{overviewQuickReply},
			Source:  domain.SourceQuick,
		},
		{
			Name:     "pricing",
			Keywords: []string{"pricing", "cost", "price"},
			Replies:  []string{pricingQuickReply},
			Source:   domain.SourceQuick,
		},
	}
}

// calculatorRule 价格计算器意图，附带滚动指令
func calculatorRule(delay time.Duration) *Rule {
	return &Rule{
		Name:     "pricing_calculator",
		Keywords: []string{"calculator", "calculate", "estimate my cost"},
		Replies:  []string{calculatorReply},
		Source:   domain.SourceCalculator,
		Commands: []domain.Command{
			{Type: domain.CommandScrollTo, Target: CalculatorTarget, Delay: delay},
		},
	}
}

// localRules 本地兜底规则，按顺序匹配
func localRules() []*Rule {
	return []*Rule{
		{
			Name:     "greeting",
			Keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
			Replies:  greetingReplies,
			Source:   domain.SourceLocal,
		},
		{
			Name:     "company",
			Keywords: []string{"who are you", "what is velora", "about velora", "company", "tell me about"},
			Replies:  []string{companyReply},
			Source:   domain.SourceLocal,
		},
		{
			Name:     "help",
			Keywords: []string{"help", "what can you do"},
			Replies:  []string{helpReply},
			Source:   domain.SourceLocal,
		},
		{
			Name:     "how_it_works",
			Keywords: []string{"how does it work", "how it works", "process", "implementation"},
			Replies:  []string{howItWorksReply},
			Source:   domain.SourceLocal,
		},
		{
			Name:     "benefits",
			Keywords: []string{"benefits", "advantages", "why velora", "why choose"},
			Replies:  []string{benefitsReply},
			Source:   domain.SourceLocal,
		},
		{
			Name:     "thanks",
			Keywords: []string{"thank", "thanks"},
			Replies:  thanksReplies,
			Source:   domain.SourceLocal,
		},
		{
			Name:     "contact",
			Keywords: []string{"contact", "team", "founder", "ceo", "cto"},
			Replies:  []string{contactReply},
			Source:   domain.SourceLocal,
		},
		{
			Name:     "goodbye",
			Keywords: []string{"bye", "goodbye", "see you", "later"},
			Replies:  []string{goodbyeReply},
			Source:   domain.SourceLocal,
		},
	}
}
